package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/users"
)

func bearerRequest(t *testing.T, env *testEnv, user *users.User, method, url string) *http.Request {
	t.Helper()
	token, err := env.app.authenticator.GenerateAccessToken(user.ID, user.Email, nil)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, url, nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func TestAuthTokenMiddleware(t *testing.T) {
	env := newTestEnv()
	active := env.addUser(1, "admin@example.com", "sekret123", true)
	disabled := env.addUser(2, "disabled@example.com", "sekret123", false)
	env.roles.codesByUser[1] = []string{"users.read"}
	mux := env.app.mount()

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/", nil)
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		token, err := env.app.authenticator.GenerateRefreshToken(active.ID, "some-jti")
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/users/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token, active user", func(t *testing.T) {
		rr := executeRequest(bearerRequest(t, env, active, http.MethodGet, "/v1/users/"), mux)
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("valid token, deactivated user", func(t *testing.T) {
		rr := executeRequest(bearerRequest(t, env, disabled, http.MethodGet, "/v1/users/"), mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("deactivation applies before the token expires", func(t *testing.T) {
		req := bearerRequest(t, env, active, http.MethodGet, "/v1/users/")
		active.IsActive = false
		defer func() { active.IsActive = true }()

		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withUser(req *http.Request, user *users.User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), userCtx, user))
}

func TestRequireRoles(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser(1, "admin@example.com", "sekret123", true)
	env.roles.rolesByUser[1] = []rbac.Role{{ID: 1, Name: "admin"}}
	viewer := env.addUser(2, "viewer@example.com", "sekret123", true)
	env.roles.rolesByUser[2] = []rbac.Role{{ID: 2, Name: "viewer"}}

	gate := env.app.RequireRoles("admin")(okHandler())

	t.Run("holder passes", func(t *testing.T) {
		rr := httptest.NewRecorder()
		gate.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), admin))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("non-holder is forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		gate.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), viewer))
		checkResponseCode(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no user in context is forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		gate.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		checkResponseCode(t, http.StatusForbidden, rr.Code)
	})

	t.Run("any of several roles passes", func(t *testing.T) {
		multi := env.app.RequireRoles("superadmin", "viewer")(okHandler())
		rr := httptest.NewRecorder()
		multi.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), viewer))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("no declared roles is a no-op", func(t *testing.T) {
		open := env.app.RequireRoles()(okHandler())
		rr := httptest.NewRecorder()
		open.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})
}

func TestRequirePermissions(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(1, "admin@example.com", "sekret123", true)
	env.roles.codesByUser[1] = []string{"users.read", "users.delete"}

	gate := env.app.RequirePermissions("users.read")(okHandler())

	serve := func(h http.Handler) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), user))
		return rr
	}

	t.Run("role grant passes", func(t *testing.T) {
		checkResponseCode(t, http.StatusOK, serve(gate).Code)
	})

	t.Run("all codes must hold", func(t *testing.T) {
		both := env.app.RequirePermissions("users.read", "users.create")(okHandler())
		checkResponseCode(t, http.StatusForbidden, serve(both).Code)
	})

	t.Run("deny override beats the role grant", func(t *testing.T) {
		env.overrides.byUser[1] = []rbac.Override{
			{UserID: 1, Code: "users.read", Effect: rbac.EffectDeny},
		}
		defer delete(env.overrides.byUser, 1)

		checkResponseCode(t, http.StatusForbidden, serve(gate).Code)
	})

	t.Run("expired deny override is inert", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		env.overrides.byUser[1] = []rbac.Override{
			{UserID: 1, Code: "users.read", Effect: rbac.EffectDeny, ExpiresAt: &past},
		}
		defer delete(env.overrides.byUser, 1)

		checkResponseCode(t, http.StatusOK, serve(gate).Code)
	})

	t.Run("allow override grants beyond the role", func(t *testing.T) {
		env.overrides.byUser[1] = []rbac.Override{
			{UserID: 1, Code: "users.create", Effect: rbac.EffectAllow},
		}
		defer delete(env.overrides.byUser, 1)

		both := env.app.RequirePermissions("users.read", "users.create")(okHandler())
		checkResponseCode(t, http.StatusOK, serve(both).Code)
	})

	t.Run("deny beats allow on the same code", func(t *testing.T) {
		env.overrides.byUser[1] = []rbac.Override{
			{UserID: 1, Code: "users.read", Effect: rbac.EffectAllow},
			{UserID: 1, Code: "users.read", Effect: rbac.EffectDeny},
		}
		defer delete(env.overrides.byUser, 1)

		checkResponseCode(t, http.StatusForbidden, serve(gate).Code)
	})

	t.Run("no user in context is forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		gate.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		checkResponseCode(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no declared codes is a no-op", func(t *testing.T) {
		open := env.app.RequirePermissions()(okHandler())
		rr := httptest.NewRecorder()
		open.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})
}

// Deny overrides hold even against the admin role end to end: the role
// gate passes, the permission gate does not.
func TestDenyOverrideBeatsAdminRoleOnRoute(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser(1, "admin@example.com", "sekret123", true)
	env.roles.rolesByUser[1] = []rbac.Role{{ID: 1, Name: "admin"}}
	env.roles.codesByUser[1] = []string{"users.read", "users.delete"}
	env.overrides.byUser[1] = []rbac.Override{
		{UserID: 1, Code: "users.read", Effect: rbac.EffectDeny},
	}
	mux := env.app.mount()

	rr := executeRequest(bearerRequest(t, env, admin, http.MethodGet, "/v1/users/"), mux)
	checkResponseCode(t, http.StatusForbidden, rr.Code)
}
