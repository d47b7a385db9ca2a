package account

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/artmorph/api/internal/config"
	"github.com/artmorph/api/internal/notification"
	"github.com/artmorph/api/internal/notification/templates"
	"github.com/artmorph/api/internal/token"
	"github.com/google/uuid"
)

// --- In-memory fakes ---

// fakeRepo is an in-memory Repository. Reads and writes copy records so tests
// observe only what the service explicitly persisted.
type fakeRepo struct {
	mu          sync.Mutex
	accounts    map[string]*Account
	codes       []*OneTimeCode
	resetTokens []*PasswordResetToken
	states      map[string]*OAuthState

	failCreate error
	failUpdate error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: make(map[string]*Account),
		states:   make(map[string]*OAuthState),
	}
}

func cloneAccount(a *Account) *Account {
	cp := *a
	if a.LoginHistory != nil {
		cp.LoginHistory = append(LoginHistory(nil), a.LoginHistory...)
	}
	return &cp
}

func (r *fakeRepo) Create(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindByGoogleID(ctx context.Context, googleID string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.GoogleID != nil && *a.GoogleID == googleID {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) Update(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	stored, ok := r.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Username = a.Username
	stored.PasswordHash = a.PasswordHash
	stored.GoogleID = a.GoogleID
	stored.Avatar = a.Avatar
	stored.EmailVerified = a.EmailVerified
	stored.ProfileComplete = a.ProfileComplete
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) SetPassword(ctx context.Context, accountID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	hash := passwordHash
	stored.PasswordHash = &hash
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) RecordLogin(ctx context.Context, accountID string, entry LoginEntry, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	t := entry.Time
	rt := refreshToken
	stored.LastLogin = &t
	stored.RefreshToken = &rt
	stored.LoginHistory = append(stored.LoginHistory, entry)
	return nil
}

func (r *fakeRepo) CreateCode(ctx context.Context, c *OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id.String()
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.codes = append(r.codes, &cp)
	return nil
}

func (r *fakeRepo) FindLiveCode(ctx context.Context, email string, purpose CodePurpose, code string) (*OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.Email == email && c.Purpose == purpose && c.Code == code && c.ExpiresAt.After(time.Now()) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) DeleteCodes(ctx context.Context, email string, purpose CodePurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Email != email || c.Purpose != purpose {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeRepo) DeleteCodeByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeRepo) CreateResetToken(ctx context.Context, t *PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id.String()
	}
	t.CreatedAt = time.Now()
	cp := *t
	r.resetTokens = append(r.resetTokens, &cp)
	return nil
}

func (r *fakeRepo) FindLiveResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.resetTokens {
		if t.Token == token && t.ExpiresAt.After(time.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) DeleteResetTokens(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.resetTokens[:0]
	for _, t := range r.resetTokens {
		if t.AccountID != accountID {
			kept = append(kept, t)
		}
	}
	r.resetTokens = kept
	return nil
}

func (r *fakeRepo) DeleteResetTokenByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.resetTokens[:0]
	for _, t := range r.resetTokens {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.resetTokens = kept
	return nil
}

func (r *fakeRepo) InsertOAuthState(ctx context.Context, state *OAuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *state
	r.states[state.State] = &cp
	return nil
}

func (r *fakeRepo) GetOAuthState(ctx context.Context, state string) (*OAuthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[state]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) DeleteOAuthState(ctx context.Context, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}

func (r *fakeRepo) DeleteExpiredOAuthStates(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.states {
		if time.Now().After(s.ExpiresAt) {
			delete(r.states, k)
		}
	}
	return nil
}

// fakeMailer records deliveries and can be told to fail.
type fakeMailer struct {
	mu       sync.Mutex
	sent     []notification.Message
	failSend error
}

func (m *fakeMailer) Send(ctx context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend != nil {
		return m.failSend
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) lastSent() notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// fakeLimiter returns a fixed decision.
type fakeLimiter struct {
	allow bool
	err   error
}

func (l *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.allow, l.err
}

// --- Test harness ---

type testEnv struct {
	svc     Service
	repo    *fakeRepo
	mail    *fakeMailer
	limiter *fakeLimiter
	issuer  *token.Issuer
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	mail := &fakeMailer{}
	limiter := &fakeLimiter{allow: true}
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
	})
	cfg := &config.Config{
		ClientURL: "http://localhost:3000",
		SMTP:      config.SMTPConfig{From: "noreply@artmorph.test"},
		Verification: config.VerificationConfig{
			TTLMinutes:            5,
			ResendCooldownSeconds: 60,
		},
		Reset: config.ResetConfig{TTLMinutes: 60},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(&Config{
		Repo:    repo,
		Tokens:  issuer,
		Mail:    mail,
		Tmpl:    templates.NewEngine(templates.Config{}, logger),
		Limiter: limiter,
		Logger:  logger,
		Config:  cfg,
	})
	return &testEnv{svc: svc, repo: repo, mail: mail, limiter: limiter, issuer: issuer}
}

// seedAccount inserts a verified, profile-complete account with the given
// password and returns it.
func (e *testEnv) seedAccount(email, username, password string) *Account {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	acct := &Account{
		ID:              id.String(),
		Email:           email,
		Username:        &username,
		PasswordHash:    &hash,
		EmailVerified:   true,
		ProfileComplete: true,
	}
	if err := e.repo.Create(context.Background(), acct); err != nil {
		panic(err)
	}
	return acct
}

// storedCode returns the single live code for the pair, or nil.
func (e *testEnv) storedCode(email string, purpose CodePurpose) *OneTimeCode {
	e.repo.mu.Lock()
	defer e.repo.mu.Unlock()
	for _, c := range e.repo.codes {
		if c.Email == email && c.Purpose == purpose {
			cp := *c
			return &cp
		}
	}
	return nil
}

// storedResetTokens returns all reset tokens for an account.
func (e *testEnv) storedResetTokens(accountID string) []*PasswordResetToken {
	e.repo.mu.Lock()
	defer e.repo.mu.Unlock()
	var out []*PasswordResetToken
	for _, t := range e.repo.resetTokens {
		if t.AccountID == accountID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}
