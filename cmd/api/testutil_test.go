package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backoffice/internal/auth"
	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/resettokens"
	"backoffice/internal/domain/sessions"
	"backoffice/internal/domain/users"
	"backoffice/internal/params"
	"backoffice/internal/ratelimiter"
	"backoffice/internal/store"
)

// memSessions is an in-memory stand-in for the session ledger with the
// same shell/attach/rotate/revoke semantics as the SQL repository.
type memSessions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*sessions.Session
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[uuid.UUID]*sessions.Session)}
}

func (m *memSessions) CreateShell(_ context.Context, userID int64, meta sessions.Metadata, rotatedFrom *uuid.UUID) (*sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &sessions.Session{
		ID:          uuid.New(),
		UserID:      userID,
		ExpiresAt:   time.Unix(0, 0),
		RotatedFrom: rotatedFrom,
		UserAgent:   meta.UserAgent,
		IP:          meta.IP,
		CreatedAt:   time.Now(),
	}
	m.rows[s.ID] = s

	cp := *s
	return &cp, nil
}

func (m *memSessions) AttachToken(_ context.Context, id uuid.UUID, rawToken string, expiresAt time.Time) error {
	hash, err := sessions.HashToken(rawToken)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return sessions.ErrNotFound
	}
	s.TokenHash = hash
	s.ExpiresAt = expiresAt
	return nil
}

func (m *memSessions) FindByID(_ context.Context, id uuid.UUID) (*sessions.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) MarkRevoked(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.rows[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (m *memSessions) MarkRotated(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.rows[id]; ok && s.RotatedAt == nil {
		now := time.Now()
		s.RotatedAt = &now
		s.TokenHash = nil
	}
	return nil
}

func (m *memSessions) RevokeChain(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chain := map[uuid.UUID]struct{}{id: {}}
	for changed := true; changed; {
		changed = false
		for _, s := range m.rows {
			if _, ok := chain[s.ID]; ok && s.RotatedFrom != nil {
				if _, seen := chain[*s.RotatedFrom]; !seen {
					chain[*s.RotatedFrom] = struct{}{}
					changed = true
				}
			}
			if s.RotatedFrom != nil {
				if _, ok := chain[*s.RotatedFrom]; ok {
					if _, seen := chain[s.ID]; !seen {
						chain[s.ID] = struct{}{}
						changed = true
					}
				}
			}
		}
	}

	now := time.Now()
	for sid := range chain {
		if s, ok := m.rows[sid]; ok && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (m *memSessions) snapshot(id uuid.UUID) *sessions.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (m *memSessions) all() []*sessions.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*sessions.Session, 0, len(m.rows))
	for _, s := range m.rows {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// memResetTokens mirrors the reset-token repository: newest usable
// token wins, marking used is one-way.
type memResetTokens struct {
	mu     sync.Mutex
	nextID int64
	rows   []*resettokens.ResetToken
}

func newMemResetTokens() *memResetTokens {
	return &memResetTokens{}
}

func (m *memResetTokens) Create(_ context.Context, t *resettokens.ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memResetTokens) FindUsable(_ context.Context, userID int64, tokenHash string) (*resettokens.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var best *resettokens.ResetToken
	for _, t := range m.rows {
		if t.UserID != userID || t.TokenHash != tokenHash {
			continue
		}
		if t.UsedAt != nil || !t.ExpiresAt.After(now) {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = t
		}
	}
	if best == nil {
		return nil, resettokens.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memResetTokens) MarkUsed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.rows {
		if t.ID == id && t.UsedAt == nil {
			now := time.Now()
			t.UsedAt = &now
			return nil
		}
	}
	return resettokens.ErrNotFound
}

// fakeUsersStore embeds the interface so tests only implement what a
// given scenario touches.
type fakeUsersStore struct {
	users.Store
	byID          map[int64]*users.User
	byEmail       map[string]*users.User
	passwords     map[int64]string
	setPasswordFn func(userID int64, plain string) error
}

func newFakeUsersStore() *fakeUsersStore {
	return &fakeUsersStore{
		byID:      make(map[int64]*users.User),
		byEmail:   make(map[string]*users.User),
		passwords: make(map[int64]string),
	}
}

func (f *fakeUsersStore) add(u *users.User, password string) {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	f.passwords[u.ID] = password
}

func (f *fakeUsersStore) List(_ context.Context, _ string, p *params.Pagination) ([]users.User, error) {
	out := make([]users.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	p.ComputeMeta(len(out))
	return out, nil
}

func (f *fakeUsersStore) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	u, ok := f.byEmail[email]
	if !ok || !u.IsActive || u.DeletedAt != nil {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersStore) ValidateCredentials(_ context.Context, email, plain string) (*users.User, error) {
	u, ok := f.byEmail[email]
	if !ok || !u.IsActive || u.DeletedAt != nil || f.passwords[u.ID] != plain {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersStore) SetPassword(_ context.Context, userID int64, plain string) error {
	if f.setPasswordFn != nil {
		return f.setPasswordFn(userID, plain)
	}
	if _, ok := f.byID[userID]; !ok {
		return users.ErrNotFound
	}
	f.passwords[userID] = plain
	return nil
}

type fakeRolesStore struct {
	rbac.RolesStore
	rolesByUser map[int64][]rbac.Role
	codesByUser map[int64][]string
}

func newFakeRolesStore() *fakeRolesStore {
	return &fakeRolesStore{
		rolesByUser: make(map[int64][]rbac.Role),
		codesByUser: make(map[int64][]string),
	}
}

func (f *fakeRolesStore) ListForUser(_ context.Context, userID int64) ([]rbac.Role, error) {
	return f.rolesByUser[userID], nil
}

func (f *fakeRolesStore) PermissionCodesForUser(_ context.Context, userID int64) ([]string, error) {
	return f.codesByUser[userID], nil
}

type fakeOverridesStore struct {
	rbac.OverridesStore
	byUser map[int64][]rbac.Override
}

func newFakeOverridesStore() *fakeOverridesStore {
	return &fakeOverridesStore{byUser: make(map[int64][]rbac.Override)}
}

func (f *fakeOverridesStore) ListForUser(_ context.Context, userID int64) ([]rbac.Override, error) {
	return f.byUser[userID], nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) Send(_, _, email string, _ any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return 200, nil
}

type testEnv struct {
	app         *application
	usersStore  *fakeUsersStore
	sessions    *memSessions
	resetTokens *memResetTokens
	roles       *fakeRolesStore
	overrides   *fakeOverridesStore
	mailer      *fakeMailer
}

func newTestEnv() *testEnv {
	usersStore := newFakeUsersStore()
	sessionsStore := newMemSessions()
	resetStore := newMemResetTokens()
	rolesStore := newFakeRolesStore()
	overridesStore := newFakeOverridesStore()
	mail := &fakeMailer{}

	cfg := config{
		addr:        ":0",
		env:         "test",
		frontendURL: "http://localhost:3000",
		mail:        mailConfig{resetExp: 20 * time.Minute},
		auth: authConfig{
			token: tokenConfig{
				secret:          "test-access-secret",
				refreshSecret:   "test-refresh-secret",
				accessTokenExp:  15 * time.Minute,
				refreshTokenExp: 21 * 24 * time.Hour,
				iss:             "backoffice",
			},
			cookie: cookieConfig{name: "refresh_token", path: "/v1/auth/refresh"},
		},
		rateLimiter: ratelimiter.Config{Enabled: false},
	}

	app := &application{
		config: cfg,
		logger: zap.NewNop().Sugar(),
		store: store.Storage{
			Users:       usersStore,
			Sessions:    sessionsStore,
			ResetTokens: resetStore,
			Roles:       rolesStore,
			Overrides:   overridesStore,
		},
		mailer: mail,
		authenticator: auth.NewJWTAuthenticator(
			cfg.auth.token.secret,
			cfg.auth.token.refreshSecret,
			cfg.auth.token.accessTokenExp,
			cfg.auth.token.refreshTokenExp,
			cfg.auth.token.iss,
			cfg.auth.token.iss,
		),
		rateLimiter: ratelimiter.NewFixedWindowLimiter(100, time.Second),
	}

	return &testEnv{
		app:         app,
		usersStore:  usersStore,
		sessions:    sessionsStore,
		resetTokens: resetStore,
		roles:       rolesStore,
		overrides:   overridesStore,
		mailer:      mail,
	}
}

func (e *testEnv) addUser(id int64, email, password string, active bool) *users.User {
	u := &users.User{
		ID:       id,
		Name:     "Test User",
		Email:    email,
		IsActive: active,
	}
	u.Password.Set(password)
	e.usersStore.add(u, password)
	return u
}
