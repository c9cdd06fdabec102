// Package session keeps platform credentials between requests. It replaces
// ambient token lookups with an explicit Session handed to the orchestrator.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"xp-dashboard/internal/auth"
	"xp-dashboard/internal/profile/domain"
)

// CookieName carries the session id.
const CookieName = "xpd_session"

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session: not found")

// Session is one signed-in platform credential.
type Session struct {
	ID        string
	Token     string
	UserID    string
	Remember  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator exchanges credentials for a platform token.
type Authenticator interface {
	SignIn(ctx context.Context, login, password string) (string, error)
}

// Manager signs users in and hands out their tokens while they are valid.
type Manager struct {
	store       Store
	auth        Authenticator
	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store Store, authenticator Authenticator, ttl, rememberTTL time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	if authenticator == nil {
		return nil, errors.New("session: nil authenticator")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if rememberTTL < ttl {
		rememberTTL = ttl
	}
	return &Manager{store: store, auth: authenticator, ttl: ttl, rememberTTL: rememberTTL, now: time.Now}, nil
}

// SignIn authenticates against the platform and stores the new session. The
// session never outlives the token's own expiry.
func (m *Manager) SignIn(ctx context.Context, login, password string, remember bool) (Session, error) {
	token, err := m.auth.SignIn(ctx, login, password)
	if err != nil {
		return Session{}, err
	}
	claims, err := auth.ParseClaims(token)
	if err != nil {
		return Session{}, &domain.AuthError{Message: "platform returned an unreadable token", Err: err}
	}
	now := m.now()
	ttl := m.ttl
	if remember {
		ttl = m.rememberTTL
	}
	expires := now.Add(ttl)
	if exp := claims.ExpiresAtTime(); !exp.IsZero() && exp.Before(expires) {
		expires = exp
	}
	s := Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    claims.UserID(),
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Token returns the token of session id. Expired sessions are removed and
// reported as ErrTokenExpired.
func (m *Manager) Token(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", domain.ErrNoToken
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", domain.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return "", domain.ErrTokenExpired
	}
	return s.Token, nil
}

// Clear forgets session id.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := m.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// TokenForRequest resolves the session cookie of r.
func (m *Manager) TokenForRequest(ctx context.Context, r *http.Request) (string, error) {
	return m.Token(ctx, IDFromRequest(r))
}

// ClearForRequest forgets the session of r.
func (m *Manager) ClearForRequest(ctx context.Context, r *http.Request) error {
	return m.Clear(ctx, IDFromRequest(r))
}

// IDFromRequest returns the session id cookie of r.
func IDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Cookie builds the session cookie. Non-remembered sessions get a browser
// session cookie.
func Cookie(s Session, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Remember {
		c.Expires = s.ExpiresAt
	}
	return c
}

// ExpiredCookie clears the session cookie.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode}
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Save stores s.
func (s *MemoryStore) Save(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return errors.New("session: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Get loads a session by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session by id.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Sweep removes sessions expired at now and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
