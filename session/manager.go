// Package session owns the dashboard's authentication state.
//
// A Manager is the only writer of the token store. The HTTP transport in
// apiclient reports refreshes and expiry back through the apiclient.Session
// methods rather than touching storage. Mutating operations (bootstrap,
// login, register, refresh, logout) run one at a time; concurrent refreshes
// share a single backend call.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/hr-dashboard/apiclient"
	"github.com/jrsteele09/hr-dashboard/authservice"
	"github.com/jrsteele09/hr-dashboard/tokenstore"
	"github.com/jrsteele09/hr-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrClosed         = errors.New("session manager closed")
)

const (
	loginFailed    = "Login failed"
	registerFailed = "Registration failed"
	refreshFailed  = "Failed to refresh token"
	profileFailed  = "failed to get user information"
)

// Authenticator is the backend auth API the manager drives
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*oauth2.Token, error)
	Register(ctx context.Context, username, password, name string) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, accessToken string) (*users.User, error)
}

var _ Authenticator = (*authservice.Service)(nil)
var _ apiclient.Session = (*Manager)(nil)

type Manager struct {
	store         *tokenstore.Store
	auth          Authenticator
	navigator     Navigator
	logger        zerolog.Logger
	logoutTimeout time.Duration

	// opLock serializes session-mutating operations
	opLock    sync.Mutex
	refreshes singleflight.Group
	bootstrap sync.Once

	stateLock sync.RWMutex
	token     *oauth2.Token
	user      *users.User
	perms     users.PermissionSet
	phase     Phase
	loading   bool
	closed    bool

	listenerLock sync.Mutex
	listeners    map[int]*listener
	nextListener int

	revocations sync.WaitGroup
}

// New returns a manager in the Bootstrapping phase. Call Bootstrap once the
// caller is ready to observe state changes.
func New(store *tokenstore.Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		auth:          auth,
		logger:        log.Logger,
		logoutTimeout: defaultLogoutTimeout,
		phase:         Bootstrapping,
		loading:       true,
		listeners:     make(map[int]*listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap restores a stored session. Only the first call does anything.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootstrap.Do(func() {
		m.opLock.Lock()
		defer m.opLock.Unlock()
		m.restore(ctx)
	})
}

func (m *Manager) restore(ctx context.Context) {
	if m.Phase() != Bootstrapping {
		// an explicit login or logout already settled the session
		return
	}

	tok := m.store.Load()
	if tok == nil {
		if m.store.HasPartial() {
			m.logger.Warn().Msg("discarding incomplete stored session")
			m.store.Clear()
		}
		m.update(func() {
			m.phase = Anonymous
			m.loading = false
		})
		return
	}

	m.update(func() {
		m.token = tok
		m.loading = true
	})

	if err := m.resolveUser(ctx); err != nil {
		m.logger.Info().Err(err).Msg("stored session could not be restored")
	}
	m.update(func() {
		m.loading = false
	})
}

// resolveUser fetches the profile for the current token, refreshing once if
// the fetch fails. Any further failure ends the session. opLock must be held.
func (m *Manager) resolveUser(ctx context.Context) error {
	user, err := m.auth.Me(ctx, m.AccessToken())
	if err == nil {
		m.setUser(user)
		return nil
	}
	m.logger.Debug().Err(err).Msg("profile fetch failed, attempting refresh")

	if _, refreshErr := m.refreshLocked(ctx); refreshErr != nil {
		m.logoutLocked()
		return refreshErr
	}

	user, err = m.auth.Me(ctx, m.AccessToken())
	if err != nil {
		m.logoutLocked()
		return err
	}
	m.setUser(user)
	return nil
}

func (m *Manager) setUser(user *users.User) {
	m.update(func() {
		m.user = user
		m.perms = users.NewPermissionSet(user)
		m.phase = Authenticated
	})
	m.store.SaveProfile(user)
}

// Login authenticates with the backend and loads the user's profile. When
// the profile fetch fails the tokens stay persisted and FetchCurrentUser can
// retry without new credentials.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	m.opLock.Lock()
	defer m.opLock.Unlock()
	return m.loginLocked(ctx, username, password)
}

func (m *Manager) loginLocked(ctx context.Context, username, password string) (result Result) {
	if m.isClosed() {
		return failed(ErrClosed.Error(), ErrClosed)
	}

	m.update(func() {
		m.loading = true
	})
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("login panicked")
			result = failed(loginFailed, errors.New("unexpected login failure"))
		}
		m.update(func() {
			m.loading = false
			if m.phase == Bootstrapping {
				m.phase = Anonymous
			}
		})
	}()

	tok, err := m.auth.Login(ctx, username, password)
	if err != nil {
		m.logger.Info().Err(err).Str("username", username).Msg("login rejected")
		return failed(messageOr(err, loginFailed), err)
	}

	m.update(func() {
		m.token = tok
		m.user = nil
		m.perms = nil
		m.phase = Anonymous
	})
	m.store.Save(tok)
	m.store.SaveProfile(nil)

	user, err := m.auth.Me(ctx, tok.AccessToken)
	if err != nil {
		m.logger.Warn().Err(err).Str("username", username).Msg("profile fetch after login failed")
		return failed(profileFailed, err)
	}
	m.setUser(user)
	return ok()
}

// Register creates the account and, on success, logs in with the same
// credentials.
func (m *Manager) Register(ctx context.Context, username, password, name string) Result {
	m.opLock.Lock()
	defer m.opLock.Unlock()

	if m.isClosed() {
		return failed(ErrClosed.Error(), ErrClosed)
	}
	if _, err := m.auth.Register(ctx, username, password, name); err != nil {
		m.logger.Info().Err(err).Str("username", username).Msg("registration rejected")
		return failed(messageOr(err, registerFailed), err)
	}
	return m.loginLocked(ctx, username, password)
}

// FetchCurrentUser reloads the profile for the held tokens
func (m *Manager) FetchCurrentUser(ctx context.Context) Result {
	m.opLock.Lock()
	defer m.opLock.Unlock()

	if m.AccessToken() == "" {
		return failed(ErrNotLoggedIn.Error(), ErrNotLoggedIn)
	}
	if err := m.resolveUser(ctx); err != nil {
		return failed(profileFailed, err)
	}
	return ok()
}

// Refresh exchanges the refresh token for a new pair. A missing or rejected
// refresh token ends the session.
func (m *Manager) Refresh(ctx context.Context) Result {
	_, err := m.sharedRefresh(ctx)
	if err != nil {
		return failed(messageOr(err, refreshFailed), err)
	}
	return ok()
}

// Token returns a copy of the held token pair, or nil
func (m *Manager) Token() *oauth2.Token {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	if m.token == nil {
		return nil
	}
	tok := *m.token
	return &tok
}

func (m *Manager) sharedRefresh(ctx context.Context) (*oauth2.Token, error) {
	// one caller's cancellation must not fail the others sharing the call
	detached := context.WithoutCancel(ctx)
	v, err, _ := m.refreshes.Do("refresh", func() (interface{}, error) {
		m.opLock.Lock()
		defer m.opLock.Unlock()
		return m.refreshLocked(detached)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// refreshLocked must be called with opLock held
func (m *Manager) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	current := m.Token()
	if current == nil || current.RefreshToken == "" {
		m.logoutLocked()
		return nil, ErrNoRefreshToken
	}

	tok, err := m.auth.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if errors.Is(err, authservice.ErrRefreshInvalid) {
			m.logger.Info().Err(err).Msg("refresh token rejected, ending session")
			m.logoutLocked()
		} else {
			m.logger.Warn().Err(err).Msg("refresh failed")
		}
		return nil, err
	}

	m.update(func() {
		m.token = tok
	})
	m.store.Save(tok)
	return tok, nil
}

// Logout ends the session locally right away and revokes it on the backend
// in the background. Local state is cleared even when the backend call fails.
// After Close only the local state is cleared.
func (m *Manager) Logout(ctx context.Context) {
	m.opLock.Lock()
	defer m.opLock.Unlock()
	m.logoutLocked()
}

func (m *Manager) logoutLocked() {
	var accessToken string
	m.update(func() {
		if m.token != nil {
			accessToken = m.token.AccessToken
		}
		m.token = nil
		m.user = nil
		m.perms = nil
		m.phase = Anonymous
		m.loading = false
	})
	m.store.Clear()

	if accessToken == "" {
		return
	}

	// Add must not race Close's Wait
	m.stateLock.Lock()
	if m.closed {
		m.stateLock.Unlock()
		m.logger.Debug().Msg("manager closed, skipping server side logout")
		return
	}
	m.revocations.Add(1)
	m.stateLock.Unlock()

	go func() {
		defer m.revocations.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.logoutTimeout)
		defer cancel()
		if err := m.auth.Logout(ctx, accessToken); err != nil {
			m.logger.Debug().Err(err).Msg("server side logout failed, ignoring")
		}
	}()
}

// AccessToken implements apiclient.Session
func (m *Manager) AccessToken() string {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// RefreshAccessToken implements apiclient.Session
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	tok, err := m.sharedRefresh(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Expire implements apiclient.Session: the session is cleared and the
// navigator is sent to the login route. Nothing happens when the session
// already holds a different token than the one that was rejected, such as
// after a login that finished while the failed request was in flight.
func (m *Manager) Expire(ctx context.Context, accessToken string) {
	m.opLock.Lock()
	if current := m.AccessToken(); current != "" && current != accessToken {
		m.opLock.Unlock()
		m.logger.Debug().Msg("expired token already replaced, keeping session")
		return
	}
	m.logoutLocked()
	m.opLock.Unlock()

	if m.navigator != nil {
		m.navigator.Navigate(LoginRoute)
	}
}

// HasPermission is false without a user, otherwise an exact match against
// any permission of any of the user's roles.
func (m *Manager) HasPermission(resource, action string) bool {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	if m.user == nil {
		return false
	}
	return m.perms.Has(resource, action)
}

// User returns a copy of the authenticated user, or nil
func (m *Manager) User() *users.User {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.user.Clone()
}

func (m *Manager) IsAuthenticated() bool {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.user != nil
}

func (m *Manager) IsLoading() bool {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.loading
}

func (m *Manager) Phase() Phase {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.phase
}

func (m *Manager) State() State {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.snapshot()
}

// snapshot must be called with stateLock held
func (m *Manager) snapshot() State {
	s := State{
		Phase:           m.phase,
		User:            m.user.Clone(),
		IsAuthenticated: m.user != nil,
		IsLoading:       m.loading,
	}
	if m.token != nil {
		s.AccessExpiry = m.token.Expiry
		if s.AccessExpiry.IsZero() {
			s.AccessExpiry = accessExpiry(m.token.AccessToken)
		}
	}
	return s
}

// CachedProfile is the profile stored by the last successful fetch. It is
// for display while bootstrapping and never grants permissions.
func (m *Manager) CachedProfile() *users.User {
	return m.store.LoadProfile()
}

type listener struct {
	fn     func(State)
	active atomic.Bool
}

// Subscribe registers fn for every state change. Listeners run synchronously
// on the goroutine that changed the state and must not call the mutating
// methods. The returned function unsubscribes and may be called from inside
// fn; after it returns fn receives no further changes.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	l := &listener{fn: fn}
	l.active.Store(true)

	m.listenerLock.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = l
	m.listenerLock.Unlock()

	return func() {
		l.active.Store(false)
		m.listenerLock.Lock()
		defer m.listenerLock.Unlock()
		delete(m.listeners, id)
	}
}

// update applies fn under the state lock and then notifies listeners. fn
// must not do I/O; store writes happen after update under opLock.
func (m *Manager) update(fn func()) {
	m.stateLock.Lock()
	fn()
	state := m.snapshot()
	m.stateLock.Unlock()

	m.notify(state)
}

func (m *Manager) notify(state State) {
	m.listenerLock.Lock()
	active := make([]*listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		active = append(active, l)
	}
	m.listenerLock.Unlock()

	for _, l := range active {
		// a listener removed by an earlier one in this pass is skipped
		if l.active.Load() {
			l.fn(state)
		}
	}
}

func (m *Manager) isClosed() bool {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.closed
}

// Close waits for outstanding background logouts and drops all listeners.
// The session itself is left as is so a stored session survives the process.
func (m *Manager) Close() {
	m.stateLock.Lock()
	m.closed = true
	m.stateLock.Unlock()

	m.revocations.Wait()

	m.listenerLock.Lock()
	for _, l := range m.listeners {
		l.active.Store(false)
	}
	m.listeners = make(map[int]*listener)
	m.listenerLock.Unlock()
}

func messageOr(err error, fallback string) string {
	var apiErr *authservice.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, authservice.ErrNetwork),
		errors.Is(err, authservice.ErrInvalidCredentials),
		errors.Is(err, authservice.ErrValidation),
		errors.Is(err, authservice.ErrRefreshInvalid),
		errors.Is(err, authservice.ErrUnexpectedResponse):
		return authservice.Message(err)
	case errors.Is(err, ErrNoRefreshToken):
		return err.Error()
	}
	return fallback
}
