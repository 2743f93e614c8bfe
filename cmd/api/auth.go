package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/auth"
	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/resettokens"
	"backoffice/internal/domain/sessions"
	"backoffice/internal/domain/users"
	"backoffice/internal/mailer"
)

// setRefreshCookie scopes the long-lived token to the refresh endpoint
// path only, so browsers never attach it to any other request.
func (app *application) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.config.auth.cookie.name,
		Value:    token,
		Path:     app.config.auth.cookie.path,
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.refreshTokenExp.Seconds()),
	})
}

func (app *application) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.config.auth.cookie.name,
		Value:    "",
		Path:     app.config.auth.cookie.path,
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func requestMetadata(r *http.Request) sessions.Metadata {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return sessions.Metadata{
		UserAgent: r.UserAgent(),
		IP:        ip,
	}
}

func roleClaims(roles []rbac.Role) []auth.RoleClaim {
	claims := make([]auth.RoleClaim, 0, len(roles))
	for _, role := range roles {
		rc := auth.RoleClaim{ID: role.ID, Name: role.Name}
		for _, p := range role.Permissions {
			rc.Permissions = append(rc.Permissions, auth.PermissionClaim{Code: p.Code})
		}
		claims = append(claims, rc)
	}
	return claims
}

// issueSession runs the shell-then-attach two-step: insert an empty
// session row, sign the refresh token with the row id as jti, then store
// the token's hash and decoded expiry back on the row. A crash between
// the writes leaves a dead shell that can never validate.
func (app *application) issueSession(r *http.Request, userID int64, rotatedFrom *uuid.UUID) (string, error) {
	ctx := r.Context()

	shell, err := app.store.Sessions.CreateShell(ctx, userID, requestMetadata(r), rotatedFrom)
	if err != nil {
		return "", err
	}

	refreshToken, err := app.authenticator.GenerateRefreshToken(userID, shell.ID.String())
	if err != nil {
		return "", err
	}

	expiresAt, err := app.authenticator.DecodeExpiry(refreshToken)
	if err != nil {
		expiresAt = time.Now().Add(app.config.auth.token.refreshTokenExp)
	}

	if err := app.store.Sessions.AttachToken(ctx, shell.ID, refreshToken, expiresAt); err != nil {
		return "", err
	}

	return refreshToken, nil
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// AccessTokenResponse carries the only token a client ever sees in a
// body; the refresh token travels exclusively in the cookie.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// loginHandler godoc
//
//	@Summary		Login
//	@Description	Verifies credentials, starts a refresh-token session and returns an access token. The refresh token is set as an HttpOnly cookie.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload		true	"Credentials"
//	@Success		200		{object}	AccessTokenResponse	"Access token"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	// Wrong password and unknown email both come back as ErrNotFound,
	// so the response never reveals which accounts exist.
	user, err := app.store.Users.ValidateCredentials(ctx, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	roles, err := app.store.Roles.ListForUser(ctx, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	accessToken, err := app.authenticator.GenerateAccessToken(user.ID, user.Email, roleClaims(roles))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	refreshToken, err := app.issueSession(r, user.ID, nil)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setRefreshCookie(w, refreshToken)

	if err := app.jsonResponse(w, http.StatusOK, AccessTokenResponse{AccessToken: accessToken}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// refreshHandler godoc
//
//	@Summary		Rotate the refresh token
//	@Description	Validates the refresh cookie, rotates the session and returns a new access token. A replayed refresh token revokes its session and returns 403.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	AccessTokenResponse	"New access token"
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error	"Reuse detected"
//	@Router			/auth/refresh [post]
func (app *application) refreshHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(app.config.auth.cookie.name)
	if err != nil || cookie.Value == "" {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("no refresh token"))
		return
	}
	presented := cookie.Value

	claims, err := app.authenticator.ValidateRefreshToken(presented)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()

	session, err := app.store.Sessions.FindByID(ctx, jti)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}
	if session.IsRevoked() {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("session revoked"))
		return
	}
	// The stored expiry is authoritative, independently of the token's
	// own exp claim.
	if session.IsExpired(time.Now()) {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("session expired"))
		return
	}

	// Signature already verified, session alive: a hash mismatch here
	// means the token was rotated away and is being replayed.
	if !session.Matches(presented) {
		if err := app.store.Sessions.MarkRevoked(ctx, session.ID); err != nil {
			app.logger.Errorw("revoking reused session", "session_id", session.ID, "error", err)
		}
		app.logger.Warnw("refresh token reuse detected", "session_id", session.ID, "user_id", session.UserID, "ip", requestMetadata(r).IP)
		app.forbiddenResponse(w, r, fmt.Errorf("refresh token reuse detected"))
		return
	}

	if err := app.store.Sessions.MarkRotated(ctx, session.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	refreshToken, err := app.issueSession(r, session.UserID, &session.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	roles, err := app.store.Roles.ListForUser(ctx, session.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	user, err := app.store.Users.GetByID(ctx, session.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	accessToken, err := app.authenticator.GenerateAccessToken(user.ID, user.Email, roleClaims(roles))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setRefreshCookie(w, refreshToken)

	if err := app.jsonResponse(w, http.StatusOK, AccessTokenResponse{AccessToken: accessToken}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Revokes the presented session if the cookie verifies, clears the cookie either way. Always acknowledges success.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(app.config.auth.cookie.name); err == nil && cookie.Value != "" {
		if claims, err := app.authenticator.ValidateRefreshToken(cookie.Value); err == nil {
			if jti, err := uuid.Parse(claims.ID); err == nil {
				if err := app.store.Sessions.MarkRevoked(r.Context(), jti); err != nil {
					app.logger.Warnw("revoking session on logout", "error", err)
				}
			}
		}
	}

	app.clearRefreshCookie(w)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ForgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// forgotPasswordHandler godoc
//
//	@Summary		Request a password reset
//	@Description	Sends a reset link when the account exists and is active. The response is identical either way.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ForgotPasswordPayload	true	"Account email"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Router			/auth/forgot-password [post]
func (app *application) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ForgotPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	// The neutral acknowledgment goes out on every path below, so the
	// endpoint never signals whether the account exists.
	neutral := func() {
		if err := app.jsonResponse(w, http.StatusOK, map[string]string{
			"message": "If the account exists, a reset link has been sent",
		}); err != nil {
			app.internalServerError(w, r, err)
		}
	}

	user, err := app.store.Users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			app.logger.Errorw("looking up user for password reset", "error", err)
		}
		neutral()
		return
	}

	plainToken := uuid.New().String()
	meta := requestMetadata(r)

	token := &resettokens.ResetToken{
		UserID:    user.ID,
		TokenHash: resettokens.HashToken(plainToken),
		ExpiresAt: time.Now().Add(app.config.mail.resetExp),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := app.store.ResetTokens.Create(ctx, token); err != nil {
		app.logger.Errorw("storing reset token", "error", err)
		neutral()
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password?uid=%d&token=%s", app.config.frontendURL, user.ID, plainToken)

	vars := struct {
		Username string
		ResetURL string
	}{
		Username: user.Name,
		ResetURL: resetURL,
	}

	status, err := app.mailer.Send(mailer.ResetPasswordTemplate, user.Name, user.Email, vars)
	if err != nil {
		app.logger.Errorw("error sending reset password email", "error", err)
	} else {
		app.logger.Infow("reset password email sent", "status code", status)
	}

	neutral()
}

type ResetPasswordPayload struct {
	UserID   int64  `json:"user_id" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// resetPasswordHandler godoc
//
//	@Summary		Reset password with a token
//	@Description	Consumes a reset token. Wrong, expired and already-used tokens all fail with the same 400.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ResetPasswordPayload	true	"Reset details"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Router			/auth/reset-password [post]
func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	token, err := app.store.ResetTokens.FindUsable(ctx, payload.UserID, resettokens.HashToken(payload.Token))
	if err != nil {
		if errors.Is(err, resettokens.ErrNotFound) {
			app.badRequestResponse(w, r, fmt.Errorf("invalid or expired token"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SetPassword(ctx, payload.UserID, payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.ResetTokens.MarkUsed(ctx, token.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset successful"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type VerifyResetTokenPayload struct {
	UserID int64  `json:"user_id" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// verifyResetTokenHandler godoc
//
//	@Summary		Check a reset token
//	@Description	Pre-flight check used before showing the reset form. No side effects.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		VerifyResetTokenPayload	true	"Token to check"
//	@Success		200		{object}	map[string]bool
//	@Failure		400		{object}	error
//	@Router			/auth/verify-reset-token [post]
func (app *application) verifyResetTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload VerifyResetTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	valid := true
	_, err := app.store.ResetTokens.FindUsable(r.Context(), payload.UserID, resettokens.HashToken(payload.Token))
	if err != nil {
		if !errors.Is(err, resettokens.ErrNotFound) {
			app.internalServerError(w, r, err)
			return
		}
		valid = false
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"valid": valid}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// currentUserHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the authenticated user with roles and effective permission codes.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/auth/me [get]
func (app *application) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	roles, err := app.store.Roles.ListForUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	user.Roles = roles

	effective, err := app.effectivePermissions(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	codes := make([]string, 0, len(effective))
	for code := range effective {
		codes = append(codes, code)
	}

	response := struct {
		*users.User
		Permissions []string `json:"permissions"`
	}{User: user, Permissions: codes}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
