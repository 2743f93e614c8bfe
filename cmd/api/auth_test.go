package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/domain/resettokens"
)

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected response code %d, got %d", expected, actual)
	}
}

func jsonRequest(t *testing.T, method, url string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func refreshCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", name)
	return nil
}

func login(t *testing.T, mux http.Handler, email, password string) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()
	req := jsonRequest(t, http.MethodPost, "/v1/auth/login", LoginPayload{Email: email, Password: password})
	rr := executeRequest(req, mux)
	checkResponseCode(t, http.StatusOK, rr.Code)
	return rr, refreshCookie(t, rr, "refresh_token")
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, "admin@example.com", "sekret123", true)
	env.addUser(2, "disabled@example.com", "sekret123", false)
	mux := env.app.mount()

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/login", LoginPayload{Email: "nobody@example.com", Password: "sekret123"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/login", LoginPayload{Email: "admin@example.com", Password: "wrong-password"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("inactive account is unauthorized", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/login", LoginPayload{Email: "disabled@example.com", Password: "sekret123"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid credentials return access token and cookie", func(t *testing.T) {
		rr, cookie := login(t, mux, "admin@example.com", "sekret123")

		var resp struct {
			Data AccessTokenResponse `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Data.AccessToken == "" {
			t.Error("expected an access token in the body")
		}
		if bytes.Contains(rr.Body.Bytes(), []byte(cookie.Value)) {
			t.Error("refresh token leaked into the response body")
		}

		if !cookie.HttpOnly {
			t.Error("refresh cookie must be HttpOnly")
		}
		if cookie.Path != "/v1/auth/refresh" {
			t.Errorf("refresh cookie path = %q, want /v1/auth/refresh", cookie.Path)
		}
	})
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, "admin@example.com", "sekret123", true)
	mux := env.app.mount()

	_, first := login(t, mux, "admin@example.com", "sekret123")

	sessionID := func(t *testing.T, raw string) uuid.UUID {
		t.Helper()
		claims, err := env.app.authenticator.ValidateRefreshToken(raw)
		if err != nil {
			t.Fatal(err)
		}
		id, err := uuid.Parse(claims.ID)
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	firstID := sessionID(t, first.Value)

	// Rotate.
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(first)
	rr := executeRequest(req, mux)
	checkResponseCode(t, http.StatusOK, rr.Code)

	second := refreshCookie(t, rr, "refresh_token")
	if second.Value == first.Value {
		t.Fatal("refresh did not rotate the token")
	}
	secondID := sessionID(t, second.Value)

	s1 := env.sessions.snapshot(firstID)
	if s1 == nil || s1.RotatedAt == nil {
		t.Fatal("first session was not marked rotated")
	}
	if s1.RevokedAt != nil {
		t.Error("rotation alone must not revoke the session")
	}
	s2 := env.sessions.snapshot(secondID)
	if s2 == nil || s2.RotatedFrom == nil || *s2.RotatedFrom != firstID {
		t.Error("second session should link back to the first")
	}

	// Replay the first token: the rotated session gets revoked, 403.
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(first)
	rr = executeRequest(req, mux)
	checkResponseCode(t, http.StatusForbidden, rr.Code)

	s1 = env.sessions.snapshot(firstID)
	if s1.RevokedAt == nil {
		t.Error("replayed session should be revoked")
	}

	// Only the replayed session is revoked; the current one still works.
	s2 = env.sessions.snapshot(secondID)
	if s2.RevokedAt != nil {
		t.Error("reuse detection must not touch the successor session")
	}
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(second)
	rr = executeRequest(req, mux)
	checkResponseCode(t, http.StatusOK, rr.Code)
}

func TestRefreshRejections(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, "admin@example.com", "sekret123", true)
	mux := env.app.mount()

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "not-a-jwt"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token signed with the access secret", func(t *testing.T) {
		token, err := env.app.authenticator.GenerateAccessToken(1, "admin@example.com", nil)
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: token})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		token, err := env.app.authenticator.GenerateRefreshToken(1, uuid.New().String())
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: token})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		_, cookie := login(t, mux, "admin@example.com", "sekret123")
		claims, err := env.app.authenticator.ValidateRefreshToken(cookie.Value)
		if err != nil {
			t.Fatal(err)
		}
		id := uuid.MustParse(claims.ID)
		if err := env.sessions.MarkRevoked(context.Background(), id); err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(cookie)
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)

		// A revoked session never escalates to the reuse path.
		if s := env.sessions.snapshot(id); s.RotatedAt != nil {
			t.Error("revoked session must not rotate")
		}
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, "admin@example.com", "sekret123", true)
	mux := env.app.mount()

	t.Run("with a valid cookie revokes the session", func(t *testing.T) {
		_, cookie := login(t, mux, "admin@example.com", "sekret123")
		claims, err := env.app.authenticator.ValidateRefreshToken(cookie.Value)
		if err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
		req.AddCookie(cookie)
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusOK, rr.Code)

		cleared := refreshCookie(t, rr, "refresh_token")
		if cleared.MaxAge >= 0 {
			t.Error("logout should expire the refresh cookie")
		}

		s := env.sessions.snapshot(uuid.MustParse(claims.ID))
		if s.RevokedAt == nil {
			t.Error("logout should revoke the session")
		}
	})

	t.Run("without a cookie still succeeds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("with a garbage cookie still succeeds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "not-a-jwt"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusOK, rr.Code)
	})
}

func TestForgotPasswordNeutrality(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, "admin@example.com", "sekret123", true)
	env.addUser(2, "disabled@example.com", "sekret123", false)
	mux := env.app.mount()

	send := func(email string) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/forgot-password", ForgotPasswordPayload{Email: email})
		return executeRequest(req, mux)
	}

	existing := send("admin@example.com")
	unknown := send("nobody@example.com")
	disabled := send("disabled@example.com")

	for name, rr := range map[string]*httptest.ResponseRecorder{
		"existing": existing, "unknown": unknown, "disabled": disabled,
	} {
		checkResponseCode(t, http.StatusOK, rr.Code)
		_ = name
	}
	if existing.Body.String() != unknown.Body.String() || unknown.Body.String() != disabled.Body.String() {
		t.Error("forgot-password responses must be indistinguishable")
	}

	if len(env.mailer.sent) != 1 || env.mailer.sent[0] != "admin@example.com" {
		t.Errorf("expected one mail to the existing account, got %v", env.mailer.sent)
	}
}

func TestResetPasswordSingleUse(t *testing.T) {
	env := newTestEnv()
	env.addUser(1, "admin@example.com", "oldpassword", true)
	mux := env.app.mount()

	plain := uuid.New().String()
	err := env.resetTokens.Create(context.Background(), &resettokens.ResetToken{
		UserID:    1,
		TokenHash: resettokens.HashToken(plain),
		ExpiresAt: time.Now().Add(20 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}

	verify := func(t *testing.T, want bool) {
		t.Helper()
		req := jsonRequest(t, http.MethodPost, "/v1/auth/verify-reset-token", VerifyResetTokenPayload{UserID: 1, Token: plain})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusOK, rr.Code)

		var resp struct {
			Data map[string]bool `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Data["valid"] != want {
			t.Errorf("valid = %v, want %v", resp.Data["valid"], want)
		}
	}

	// Pre-flight check has no side effects, so it stays valid across calls.
	verify(t, true)
	verify(t, true)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/reset-password", ResetPasswordPayload{UserID: 1, Token: plain, Password: "newpassword1"})
	rr := executeRequest(req, mux)
	checkResponseCode(t, http.StatusOK, rr.Code)

	if env.usersStore.passwords[1] != "newpassword1" {
		t.Error("password was not updated")
	}

	// Consumed: the same token can never reset again.
	req = jsonRequest(t, http.MethodPost, "/v1/auth/reset-password", ResetPasswordPayload{UserID: 1, Token: plain, Password: "anotherpassword"})
	rr = executeRequest(req, mux)
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	verify(t, false)

	t.Run("wrong token", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/v1/auth/reset-password", ResetPasswordPayload{UserID: 1, Token: uuid.New().String(), Password: "newpassword2"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := uuid.New().String()
		err := env.resetTokens.Create(context.Background(), &resettokens.ResetToken{
			UserID:    1,
			TokenHash: resettokens.HashToken(expired),
			ExpiresAt: time.Now().Add(-time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}

		req := jsonRequest(t, http.MethodPost, "/v1/auth/reset-password", ResetPasswordPayload{UserID: 1, Token: expired, Password: "newpassword3"})
		rr := executeRequest(req, mux)
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(1, "admin@example.com", "sekret123", true)
	env.roles.codesByUser[1] = []string{"users.read"}
	mux := env.app.mount()

	token, err := env.app.authenticator.GenerateAccessToken(user.ID, user.Email, nil)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	rr := executeRequest(req, mux)
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			Email       string   `json:"email"`
			Permissions []string `json:"permissions"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Email != "admin@example.com" {
		t.Errorf("email = %q", resp.Data.Email)
	}
	if len(resp.Data.Permissions) != 1 || resp.Data.Permissions[0] != "users.read" {
		t.Errorf("permissions = %v, want [users.read]", resp.Data.Permissions)
	}
}
