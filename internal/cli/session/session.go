// Package session owns the CLI's authentication state: the bearer token, the user it belongs
// to, and the startup check that validates a persisted token against the API.
//
// A Manager is the single source of truth for "who is logged in". It is handed explicitly to
// everything that needs it: the API client reads the token through it before every request
// and reports 401 responses back to it, and commands ask it for the current user.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fintrack-dev/fintrack/internal/cli/auth"
	"github.com/fintrack-dev/fintrack/internal/cli/client"
)

// Fallback messages when the API gives no reason
const (
	MsgLoginFailed   = "Login failed"
	MsgSignupFailed  = "Signup failed"
	MsgSaveFailed    = "Failed to save session"
	MsgSessionClosed = "Session was cleared while signing in"
)

// ErrNotAuthenticated is returned by RequireUser when there is no valid session
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'fintrack login' first")

// Phase is the position in the session lifecycle
type Phase int

const (
	Unauthenticated Phase = iota
	Checking
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// State is a snapshot of the session
type State struct {
	Token   string
	User    *client.User
	Loading bool
}

// Result is the outcome of Login and Signup. Error holds a user-facing message.
type Result struct {
	Success bool
	Error   string
}

// API is the part of the finance API the manager talks to
type API interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Signup(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Profile(ctx context.Context) (*client.User, error)
}

// Navigator sends the user back to the login view after the API rejected the session
type Navigator interface {
	RedirectToLogin()
}

// Manager holds the session. It is safe for concurrent use.
type Manager struct {
	store  auth.TokenStore
	logger zerolog.Logger

	mu       sync.RWMutex
	api      API
	nav      Navigator
	token    string
	user     *client.User
	loading  bool
	checking bool
	// generation changes on every token/user mutation, clears only when the session is cleared.
	// In-flight requests compare them to drop results that arrive after the state moved on.
	generation uint64
	clears     uint64

	initOnce sync.Once
	ready    chan struct{}
}

// New creates a manager that persists the token in store.
// The session starts empty and loading until Initialize settles.
func New(store auth.TokenStore, logger zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger.With().Str("component", "session").Logger(),
		loading: true,
		ready:   make(chan struct{}),
	}
}

// SetAPI wires the API the manager authenticates against. The API client itself
// needs the manager as its token source, so this happens after construction.
func (m *Manager) SetAPI(api API) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.api = api
}

// SetNavigator registers who is told to show the login view after a 401
func (m *Manager) SetNavigator(nav Navigator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nav = nav
}

// Initialize validates a previously persisted token. Without one, no request is made.
// With one, the profile is fetched exactly once: success populates the user, any failure
// clears the session and the persisted token. Loading ends exactly once, after which
// Ready is closed. Later calls return immediately.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer m.finishLoading()
		m.checkStoredToken(ctx)
	})
}

func (m *Manager) checkStoredToken(ctx context.Context) {
	token, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			// An unreadable token can never be validated
			m.logger.Warn().Err(err).Msg("Failed to read stored token, removing it")
			if delErr := m.store.Delete(); delErr != nil {
				m.logger.Error().Err(delErr).Msg("Failed to delete stored token")
			}
		}
		return
	}

	m.mu.Lock()
	if m.token != "" {
		// A login completed before the check started; it wins
		m.mu.Unlock()
		return
	}
	m.token = token
	m.checking = true
	m.generation++
	gen := m.generation
	api := m.api
	m.mu.Unlock()

	var (
		user     *client.User
		fetchErr = errors.New("no API configured")
	)
	if api != nil {
		user, fetchErr = api.Profile(ctx)
		if fetchErr == nil && !hasIdentity(user) {
			fetchErr = errors.New("profile response carried no user")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.checking = false

	if m.generation != gen {
		m.logger.Debug().Msg("Session changed during profile check, discarding result")
		return
	}
	if fetchErr != nil {
		m.logger.Info().Err(fetchErr).Msg("Stored token rejected, clearing session")
		m.clearLocked()
		return
	}
	m.user = user
	m.generation++
	m.logger.Debug().Str("email", user.Email).Msg("Session restored")
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	close(m.ready)
}

// Ready is closed once Initialize has settled
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until Initialize has settled or ctx is done
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login authenticates with email and password. Failures are reported in the Result.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	return m.authenticate(email, MsgLoginFailed, func(api API) (*client.AuthResponse, error) {
		return api.Login(ctx, email, password)
	})
}

// Signup creates an account and starts a session for it. Same contract as Login.
func (m *Manager) Signup(ctx context.Context, email, password string) Result {
	return m.authenticate(email, MsgSignupFailed, func(api API) (*client.AuthResponse, error) {
		return api.Signup(ctx, email, password)
	})
}

func (m *Manager) authenticate(email, fallback string, call func(API) (*client.AuthResponse, error)) Result {
	log := m.logger.With().Str("email", email).Logger()

	m.mu.RLock()
	api := m.api
	clears := m.clears
	m.mu.RUnlock()

	if api == nil {
		log.Error().Msg("No API configured")
		return Result{Error: fallback}
	}

	resp, err := call(api)
	if err != nil {
		log.Warn().Err(err).Msg("Authentication failed")
		return Result{Error: failureMessage(err, fallback)}
	}
	if resp.Token == "" || !hasIdentity(&resp.User) {
		log.Warn().Msg("Authentication response carried no token or user")
		return Result{Error: fallback}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clears != clears {
		log.Info().Msg("Session cleared while authenticating, discarding token")
		return Result{Error: MsgSessionClosed}
	}

	user := resp.User
	if err := m.setLocked(resp.Token, &user); err != nil {
		log.Error().Err(err).Msg("Failed to persist token")
		return Result{Error: MsgSaveFailed}
	}

	log.Info().Msg("Authenticated")
	return Result{Success: true}
}

// failureMessage prefers the API's own explanation
func failureMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Logout clears the session and the persisted token. Calling it again is a no-op.
// Showing the login view afterwards is the caller's job.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// HandleUnauthorized is called by the API client when the server rejects the credential.
// It clears the session like Logout and then asks the navigator to show the login view.
func (m *Manager) HandleUnauthorized() {
	m.mu.Lock()
	m.clearLocked()
	nav := m.nav
	m.mu.Unlock()

	if nav != nil {
		nav.RedirectToLogin()
	}
}

// setLocked persists token and then publishes it together with user.
// On a persistence error nothing changes.
func (m *Manager) setLocked(token string, user *client.User) error {
	if err := m.store.Save(token); err != nil {
		return err
	}
	m.token = token
	m.user = user
	m.generation++
	return nil
}

// clearLocked always empties the in-memory session, even if the store cannot be updated
func (m *Manager) clearLocked() {
	m.token = ""
	m.user = nil
	m.generation++
	m.clears++
	if err := m.store.Delete(); err != nil {
		m.logger.Error().Err(err).Msg("Failed to delete stored token")
	}
}

// Token returns the credential to attach to outgoing requests, or "" when there is none
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the authenticated user, or nil
func (m *Manager) User() *client.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user)
}

// IsAuthenticated reports whether a validated session exists
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.token != ""
}

// Loading reports whether the startup check is still pending
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// State returns a snapshot of the session
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Token:   m.token,
		User:    copyUser(m.user),
		Loading: m.loading,
	}
}

// Phase returns the lifecycle position of the session
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.checking:
		return Checking
	case m.user != nil && m.token != "":
		return Authenticated
	default:
		return Unauthenticated
	}
}

// RequireUser guards protected commands: it waits for the startup check and
// returns ErrNotAuthenticated when nobody is logged in.
func (m *Manager) RequireUser(ctx context.Context) (*client.User, error) {
	if err := m.Wait(ctx); err != nil {
		return nil, err
	}
	user := m.User()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// hasIdentity reports whether u identifies someone. An email is the minimum.
func hasIdentity(u *client.User) bool {
	return u != nil && u.Email != ""
}

func copyUser(u *client.User) *client.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
