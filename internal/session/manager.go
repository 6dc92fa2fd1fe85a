package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"peopledesk.org/internal/ids"
	"peopledesk.org/internal/obs"
	"peopledesk.org/internal/rbac"
)

const defaultTTL = 12 * time.Hour

// Exchange wordings surfaced to the visitor. Credential rejections carry the
// authentication endpoint's message; transport failures collapse into
// ErrMsgNetwork.
const (
	ErrMsgInvalidCredentials = "Invalid credentials"
	ErrMsgNetwork            = "network error"
	errMsgSuperseded         = "superseded by a newer sign-in attempt"
)

// AuthOutcome is the typed result of a credential exchange. Exactly one of
// Session (on success) or Error (on rejection/transport failure) is set.
type AuthOutcome struct {
	Success bool
	Session *Session
	Error   string
}

// Authenticator performs the credential exchange against the external
// authentication endpoint. Implementations never return partial sessions:
// a successful outcome carries a fully populated Session.
type Authenticator interface {
	Exchange(ctx context.Context, email, password string) AuthOutcome
}

// LoginResult is what the login flow reports back to the UI layer. SID is
// the rotated session id the cookie must be updated to on success; it never
// travels in a response body.
type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	SID     string `json:"-"`
}

// Manager is the single source of truth for "who is logged in". It is an
// explicit service object: construct it once at boot and inject it wherever
// session state is needed.
type Manager struct {
	store  Store
	authn  Authenticator
	ttl    time.Duration
	now    func() time.Time
	newSID func() string

	ready     chan struct{}
	readyOnce sync.Once

	mu       sync.Mutex
	attempts map[string]*visitorAttempt
}

// visitorAttempt tracks the newest login attempt per visitor. Its lock also
// covers the winner's save, so a response that passed the staleness check
// cannot be interleaved with a fresher attempt's persistence.
type visitorAttempt struct {
	mu  sync.Mutex
	seq uint64
}

func (va *visitorAttempt) next() uint64 {
	va.mu.Lock()
	defer va.mu.Unlock()
	va.seq++
	return va.seq
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithTTL overrides the persistence lifetime of session blobs.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager constructs a Manager. Both dependencies are required; a nil
// store or authenticator is a programming error surfaced at construction,
// not a degraded runtime mode.
func NewManager(store Store, authn Authenticator, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	if authn == nil {
		return nil, errors.New("session: authenticator is required")
	}
	m := &Manager{
		store:    store,
		authn:    authn,
		ttl:      defaultTTL,
		now:      time.Now,
		newSID:   ids.New,
		ready:    make(chan struct{}),
		attempts: make(map[string]*visitorAttempt),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start probes the durable store once and then marks the manager ready.
// Until it completes, guards answer with the neutral loading view. A failed
// probe still flips readiness: restoration is best-effort and a broken
// store simply yields absent sessions. Start settles exactly once.
func (m *Manager) Start(ctx context.Context) {
	if err := m.store.Ping(ctx); err != nil {
		obs.Log("warn", "session_store_probe_failed", map[string]any{"error": err.Error()})
	}
	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready reports whether the boot probe has settled. No protected page is
// produced before this flips.
func (m *Manager) Ready() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// Restore rehydrates the visitor's session from durable storage. Absence,
// store trouble and corrupt blobs all yield nil; nothing propagates to the
// visitor. A corrupt blob is deleted so the next restore is clean.
func (m *Manager) Restore(ctx context.Context, sid string) *Session {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil
	}
	blob, err := m.store.Load(ctx, sid)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		obs.Log("warn", "session_restore_failed", map[string]any{"error": err.Error()})
		return nil
	}
	sess, err := Decode(blob)
	if err != nil {
		_ = m.store.Delete(ctx, sid)
		obs.Log("warn", "session_blob_corrupt", map[string]any{"sid": sid})
		return nil
	}
	return sess
}

// Login exchanges credentials with the authentication endpoint and, on
// success, persists the resulting session under a freshly minted id (the
// pre-authentication sid never names an authenticated session). Concurrent
// attempts for the same visitor race; a response that lost to a newer
// attempt is discarded rather than clobbering the fresher one.
func (m *Manager) Login(ctx context.Context, sid, email, password string) LoginResult {
	sid = strings.TrimSpace(sid)
	email = strings.TrimSpace(strings.ToLower(email))
	if sid == "" || email == "" || password == "" {
		return LoginResult{Success: false, Error: ErrMsgInvalidCredentials}
	}

	va := m.attemptFor(sid)
	my := va.next()
	outcome := m.authn.Exchange(ctx, email, password)

	// Staleness check and save happen under one lock; a newer attempt
	// cannot slip its save in between.
	va.mu.Lock()
	defer va.mu.Unlock()
	if va.seq != my {
		return LoginResult{Success: false, Error: errMsgSuperseded}
	}

	if !outcome.Success {
		msg := outcome.Error
		if msg == "" {
			msg = ErrMsgNetwork
		}
		return LoginResult{Success: false, Error: msg}
	}
	if !outcome.Session.Valid() {
		// A success without a complete identity violates the exchange
		// contract; treat it like a transport fault.
		return LoginResult{Success: false, Error: ErrMsgNetwork}
	}

	blob, err := Encode(outcome.Session)
	if err != nil {
		return LoginResult{Success: false, Error: ErrMsgNetwork}
	}
	fresh := m.newSID()
	if err := m.store.Save(ctx, fresh, blob, m.ttl); err != nil {
		obs.Log("warn", "session_persist_failed", map[string]any{"error": err.Error()})
		return LoginResult{Success: false, Error: ErrMsgNetwork}
	}
	if fresh != sid {
		_ = m.store.Delete(ctx, sid)
	}
	return LoginResult{Success: true, SID: fresh}
}

// Logout clears the visitor's persisted session and any per-visitor login
// bookkeeping. Idempotent: logging out twice is fine, and store trouble is
// swallowed after a log line.
func (m *Manager) Logout(ctx context.Context, sid string) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return
	}
	if err := m.store.Delete(ctx, sid); err != nil {
		obs.Log("warn", "session_logout_failed", map[string]any{"error": err.Error()})
	}
	m.mu.Lock()
	delete(m.attempts, sid)
	m.mu.Unlock()
}

// Ping probes the durable store. Used by readiness checks.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// HasRole applies the portal's authorization policy for the given session.
// An absent session satisfies nothing.
func (m *Manager) HasRole(s *Session, required rbac.Role) bool {
	if !s.Valid() {
		return false
	}
	return rbac.Authorize(s.Role, required)
}

func (m *Manager) attemptFor(sid string) *visitorAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	va, ok := m.attempts[sid]
	if !ok {
		va = &visitorAttempt{}
		m.attempts[sid] = va
	}
	return va
}
