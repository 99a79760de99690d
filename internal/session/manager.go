package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"account_service/internal/authz"
	jwtlib "account_service/internal/lib/jwt"
	sl "account_service/internal/lib/logger"
)

var ErrSessionExpired = errors.New("session expired, please sign in again")

// Client is the remote side of the session: the auth endpoints the manager
// talks to.
type Client interface {
	Validate(ctx context.Context, accessToken string) (User, error)
	Login(ctx context.Context, email, password string) (User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Manager drives the session state machine: boot validation, login/logout,
// and a periodic expiry check that silently refreshes the access token.
//
// The periodic check and an in-flight refresh are not mutually excluded; the
// server reissues tokens for any still-valid refresh token, so an overlap
// costs a wasted call and nothing else.
type Manager struct {
	mu    sync.Mutex
	state State

	tokens TokenStore
	client Client
	log    *slog.Logger

	checkInterval    time.Duration
	refreshThreshold time.Duration

	now        func() time.Time
	peekExpiry func(token string) (time.Time, error)

	stop     chan struct{}
	stopOnce sync.Once
}

type ManagerOption func(*Manager)

// WithManagerClock injects a custom clock (useful for tests).
func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithExpiryDecoder overrides how the access token expiry is read.
func WithExpiryDecoder(decode func(string) (time.Time, error)) ManagerOption {
	return func(m *Manager) {
		if decode != nil {
			m.peekExpiry = decode
		}
	}
}

func NewManager(
	log *slog.Logger,
	tokens TokenStore,
	client Client,
	checkInterval, refreshThreshold time.Duration,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		state:            InitialState(),
		tokens:           tokens,
		client:           client,
		log:              log,
		checkInterval:    checkInterval,
		refreshThreshold: refreshThreshold,
		now:              time.Now,
		peekExpiry:       jwtlib.PeekExpiry,
		stop:             make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Start restores the session from stored tokens and launches the periodic
// expiry check. It returns after the restore completes.
func (m *Manager) Start(ctx context.Context) {
	m.restore(ctx)

	go m.watch(ctx)
}

// Stop halts the periodic check. In-flight requests resolve and are
// discarded.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

// State returns a snapshot of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Login authenticates and stores the issued token pair. The triggering error
// is returned to the caller after the state update.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	const op = "session.Login"

	m.dispatch(LoginStarted{})

	user, pair, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.dispatch(LoginFailed{Message: err.Error()})
		return err
	}

	if err := m.tokens.Save(pair); err != nil {
		m.log.Error("failed to store tokens", slog.String("op", op), sl.Err(err))
		m.dispatch(LoginFailed{Message: "could not store session"})
		return err
	}

	m.dispatch(LoginSucceeded{User: user, At: m.now()})

	return nil
}

// Logout always clears stored tokens and resets the state, even if the
// server-side call fails.
func (m *Manager) Logout(ctx context.Context) {
	const op = "session.Logout"

	pair, err := m.tokens.Load()
	if err == nil && pair.Refresh != "" {
		if err := m.client.Logout(ctx, pair.Refresh); err != nil {
			m.log.Warn("server logout failed", slog.String("op", op), sl.Err(err))
		}
	}

	if err := m.tokens.Clear(); err != nil {
		m.log.Error("failed to clear token storage", slog.String("op", op), sl.Err(err))
	}

	m.dispatch(LoggedOut{})
}

// Refresh exchanges the stored refresh token for a fresh pair. Absence or
// rejection ends the session.
func (m *Manager) Refresh(ctx context.Context) error {
	const op = "session.Refresh"

	pair, err := m.tokens.Load()
	if err != nil || pair.Refresh == "" {
		m.expire(op)
		return ErrSessionExpired
	}

	fresh, err := m.client.Refresh(ctx, pair.Refresh)
	if err != nil {
		m.log.Warn("refresh rejected", slog.String("op", op), sl.Err(err))
		m.expire(op)
		return ErrSessionExpired
	}

	if err := m.tokens.Save(fresh); err != nil {
		m.log.Error("failed to store refreshed tokens", slog.String("op", op), sl.Err(err))
		m.expire(op)
		return ErrSessionExpired
	}

	m.dispatch(RefreshSucceeded{At: m.now()})

	return nil
}

// Touch records user activity.
func (m *Manager) Touch() {
	m.dispatch(ActivityObserved{At: m.now()})
}

// Can reports whether the current user may perform action on resource.
// Absence of a user always denies.
func (m *Manager) Can(resource, action string) bool {
	m.mu.Lock()
	user := m.state.User
	m.mu.Unlock()

	if user == nil {
		return false
	}

	return authz.Can(user.Role, resource, action)
}

func (m *Manager) restore(ctx context.Context) {
	const op = "session.restore"

	pair, err := m.tokens.Load()
	if err != nil || pair.Access == "" {
		m.dispatch(LoggedOut{})
		return
	}

	user, err := m.client.Validate(ctx, pair.Access)
	if err != nil {
		m.log.Info("stored token rejected", slog.String("op", op), sl.Err(err))

		if err := m.tokens.Clear(); err != nil {
			m.log.Error("failed to clear token storage", slog.String("op", op), sl.Err(err))
		}

		m.dispatch(LoggedOut{})
		return
	}

	m.dispatch(LoginSucceeded{User: user, At: m.now()})
}

func (m *Manager) watch(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.checkOnce(ctx)
		}
	}
}

// checkOnce decodes the access token expiry without verifying the signature
// (advisory only) and refreshes when the remaining lifetime is inside the
// threshold. A malformed token forces logout.
func (m *Manager) checkOnce(ctx context.Context) {
	const op = "session.checkOnce"

	if !m.State().IsAuthenticated {
		return
	}

	pair, err := m.tokens.Load()
	if err != nil {
		m.log.Error("failed to read token storage", slog.String("op", op), sl.Err(err))
		return
	}

	expiresAt, err := m.peekExpiry(pair.Access)
	if err != nil {
		m.log.Warn("malformed access token, logging out", slog.String("op", op), sl.Err(err))
		m.Logout(ctx)
		return
	}

	remaining := expiresAt.Sub(m.now())

	switch {
	case remaining <= 0:
		// Already past expiry: let the server decide whether the refresh
		// token is still good.
		_ = m.Refresh(ctx)
	case remaining < m.refreshThreshold:
		if err := m.Refresh(ctx); err != nil {
			m.log.Warn("silent refresh failed", slog.String("op", op), sl.Err(err))
		}
	}
}

func (m *Manager) expire(op string) {
	if err := m.tokens.Clear(); err != nil {
		m.log.Error("failed to clear token storage", slog.String("op", op), sl.Err(err))
	}

	m.dispatch(SessionExpired{Message: ErrSessionExpired.Error()})
}

func (m *Manager) dispatch(a Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Reduce(m.state, a)
}
