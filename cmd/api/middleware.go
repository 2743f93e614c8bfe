package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/users"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *users.User {
	if user, ok := r.Context().Value(userCtx).(*users.User); ok {
		return user
	}
	return nil
}

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter.String())
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// AuthTokenMiddleware verifies the bearer access token and reloads the
// user from storage. Claims are only trusted for identity; everything
// else (active flag, roles, overrides) is read fresh so edits apply
// before the token expires.
func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
			return
		}

		claims, err := app.authenticator.ValidateAccessToken(parts[1])
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := r.Context()

		user, err := app.store.Users.GetByID(ctx, userID)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}
		if !user.IsActive || user.DeletedAt != nil {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("account disabled"))
			return
		}

		ctx = context.WithValue(ctx, userCtx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles passes when the caller holds at least one of the named
// roles. Roles are loaded fresh per request, never from token claims.
// With no names declared the gate is a no-op.
func (app *application) RequireRoles(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(names) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user := getUserFromContext(r)
			if user == nil {
				app.forbiddenResponse(w, r, fmt.Errorf("no authenticated user"))
				return
			}

			roles, err := app.store.Roles.ListForUser(r.Context(), user.ID)
			if err != nil {
				app.internalServerError(w, r, err)
				return
			}

			held := make(map[string]struct{}, len(roles))
			for _, role := range roles {
				held[role.Name] = struct{}{}
			}
			for _, name := range names {
				if _, ok := held[name]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			app.forbiddenResponse(w, r, fmt.Errorf("missing required role"))
		})
	}
}

// RequirePermissions passes only when every named code is in the
// caller's effective set: role grants plus allow overrides minus deny
// overrides, expired overrides ignored. With no codes declared the gate
// is a no-op.
func (app *application) RequirePermissions(codes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(codes) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user := getUserFromContext(r)
			if user == nil {
				app.forbiddenResponse(w, r, fmt.Errorf("no authenticated user"))
				return
			}

			effective, err := app.effectivePermissions(r.Context(), user.ID)
			if err != nil {
				app.internalServerError(w, r, err)
				return
			}

			if !rbac.HasAll(effective, codes) {
				app.forbiddenResponse(w, r, fmt.Errorf("missing required permission"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) effectivePermissions(ctx context.Context, userID int64) (map[string]struct{}, error) {
	rolePerms, err := app.store.Roles.PermissionCodesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	overrides, err := app.store.Overrides.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return rbac.EffectivePermissions(rolePerms, overrides, time.Now()), nil
}
