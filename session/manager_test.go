package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/hr-dashboard/apiclient"
	"github.com/jrsteele09/hr-dashboard/authservice"
	"github.com/jrsteele09/hr-dashboard/session"
	"github.com/jrsteele09/hr-dashboard/tokenstore"
	"github.com/jrsteele09/hr-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNew_StartsLoading(t *testing.T) {
	f := setupManager(t)
	state := f.manager.State()
	require.Equal(t, session.Bootstrapping, state.Phase)
	require.True(t, state.IsLoading)
	require.False(t, state.IsAuthenticated)
}

func TestLogin_Scenario(t *testing.T) {
	f := setupManager(t)
	f.manager.Bootstrap(context.Background())

	res := f.manager.Login(context.Background(), "alice", "secret123")
	require.True(t, res.Success, res.Error)

	require.True(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.IsLoading())
	require.Equal(t, session.Authenticated, f.manager.Phase())
	require.True(t, f.manager.HasPermission("employees", "read"))
	require.False(t, f.manager.HasPermission("employees", "write"))
	require.Equal(t, "alice", f.manager.User().Username)

	tok := f.store.Load()
	require.NotNil(t, tok)
	require.Equal(t, "A1", tok.AccessToken)
	require.Equal(t, "R1", tok.RefreshToken)
	require.Equal(t, "alice", f.store.LoadProfile().Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupManager(t)
	f.manager.Bootstrap(context.Background())

	res := f.manager.Login(context.Background(), "alice", "wrong")
	require.False(t, res.Success)
	require.Equal(t, "Incorrect username or password", res.Error)
	require.ErrorIs(t, res.Cause, authservice.ErrInvalidCredentials)
	require.False(t, f.manager.IsLoading())
	require.False(t, f.manager.IsAuthenticated())
	require.Zero(t, f.backend.count("me"))
}

func TestLogin_NetworkError(t *testing.T) {
	f := setupManager(t)
	f.backend.server.Close()

	res := f.manager.Login(context.Background(), "alice", "secret123")
	require.False(t, res.Success)
	require.ErrorIs(t, res.Cause, authservice.ErrNetwork)
	require.False(t, f.manager.IsLoading())
	require.Equal(t, session.Anonymous, f.manager.Phase())
}

func TestLogin_ProfileFetchFailsKeepsTokens(t *testing.T) {
	f := setupManager(t)
	f.manager.Bootstrap(context.Background())
	f.backend.set(func(b *fakeBackend) { b.meFailures = 1 })

	res := f.manager.Login(context.Background(), "alice", "secret123")
	require.False(t, res.Success)
	require.Equal(t, "failed to get user information", res.Error)
	require.ErrorIs(t, res.Cause, authservice.ErrProfileFetchFailed)
	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.IsLoading())
	require.NotNil(t, f.store.Load())

	res = f.manager.FetchCurrentUser(context.Background())
	require.True(t, res.Success, res.Error)
	require.True(t, f.manager.IsAuthenticated())
	require.Equal(t, 1, f.backend.count("token"))
}

func TestLoginLogout_ClearsEverything(t *testing.T) {
	f := setupManager(t)
	f.manager.Bootstrap(context.Background())

	for i := 0; i < 5; i++ {
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
		if i%2 == 0 {
			require.True(t, f.manager.Refresh(context.Background()).Success)
		}
		f.manager.Logout(context.Background())

		require.False(t, f.manager.IsAuthenticated())
		require.Nil(t, f.manager.User())
		require.Empty(t, f.manager.AccessToken())
		require.Zero(t, f.storage.Len())
		require.False(t, f.manager.HasPermission("employees", "read"))
	}

	f.manager.Close()
	require.Equal(t, 5, f.backend.count("logout"))
}

type failingLogout struct {
	*authservice.Service
	calls int
	lock  sync.Mutex
}

func (a *failingLogout) Logout(context.Context, string) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.calls++
	return authservice.ErrNetwork
}

func TestLogout_BackendFailureStillClears(t *testing.T) {
	f := setupManager(t)
	auth := &failingLogout{Service: f.auth}
	m := session.New(f.store, auth, session.WithLogger(zerolog.Nop()))
	m.Bootstrap(context.Background())

	require.True(t, m.Login(context.Background(), "alice", "secret123").Success)
	m.Logout(context.Background())
	m.Close()

	require.Nil(t, m.User())
	require.False(t, m.IsAuthenticated())
	require.Nil(t, f.store.Load())
	require.Equal(t, 1, auth.calls)
}

func TestLogout_DroppedConnection(t *testing.T) {
	f := setupManager(t, session.WithLogoutTimeout(time.Second))
	f.backend.set(func(b *fakeBackend) { b.dropLogout = true })

	require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
	f.manager.Logout(context.Background())
	require.False(t, f.manager.IsAuthenticated())
	f.manager.Close()
	require.Zero(t, f.storage.Len())
}

func TestBootstrap(t *testing.T) {
	t.Run("no stored tokens", func(t *testing.T) {
		f := setupManager(t)
		f.manager.Bootstrap(context.Background())

		require.False(t, f.manager.IsLoading())
		require.Equal(t, session.Anonymous, f.manager.Phase())
		require.Zero(t, f.backend.count("me"))
		require.Zero(t, f.backend.count("refresh"))
	})

	t.Run("partial tokens are discarded", func(t *testing.T) {
		f := setupManager(t)
		require.NoError(t, f.storage.Set(context.Background(), "refresh_token", "R9"))
		f.manager.Bootstrap(context.Background())

		require.Equal(t, session.Anonymous, f.manager.Phase())
		require.Zero(t, f.backend.count("me"))
		require.Zero(t, f.storage.Len())
	})

	t.Run("valid tokens", func(t *testing.T) {
		f := setupManager(t)
		access, refresh := f.backend.seed()
		f.store.Save(&oauth2.Token{AccessToken: access, RefreshToken: refresh})

		f.manager.Bootstrap(context.Background())
		require.True(t, f.manager.IsAuthenticated())
		require.False(t, f.manager.IsLoading())
		require.Equal(t, 1, f.backend.count("me"))
		require.Zero(t, f.backend.count("refresh"))
		require.Equal(t, "alice", f.store.LoadProfile().Username)

		f.manager.Bootstrap(context.Background())
		require.Equal(t, 1, f.backend.count("me"))
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		f := setupManager(t)
		access, refresh := f.backend.seed()
		f.store.Save(&oauth2.Token{AccessToken: access, RefreshToken: refresh})
		f.backend.expireAccess()

		f.manager.Bootstrap(context.Background())
		require.True(t, f.manager.IsAuthenticated())
		require.Equal(t, 2, f.backend.count("me"))
		require.Equal(t, 1, f.backend.count("refresh"))
		require.Equal(t, "A2", f.store.Load().AccessToken)
		require.Equal(t, "R2", f.store.Load().RefreshToken)
	})

	t.Run("refresh rejected", func(t *testing.T) {
		f := setupManager(t)
		f.store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "stale"})

		f.manager.Bootstrap(context.Background())
		require.False(t, f.manager.IsAuthenticated())
		require.False(t, f.manager.IsLoading())
		require.Equal(t, session.Anonymous, f.manager.Phase())
		require.Zero(t, f.storage.Len())
	})

	t.Run("profile fails after refresh", func(t *testing.T) {
		f := setupManager(t)
		access, refresh := f.backend.seed()
		f.store.Save(&oauth2.Token{AccessToken: access, RefreshToken: refresh})
		f.backend.set(func(b *fakeBackend) { b.meFailures = 2 })

		f.manager.Bootstrap(context.Background())
		require.False(t, f.manager.IsAuthenticated())
		require.Equal(t, 1, f.backend.count("refresh"))
		require.Zero(t, f.storage.Len())
	})

	t.Run("login before bootstrap wins", func(t *testing.T) {
		f := setupManager(t)
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
		f.manager.Bootstrap(context.Background())
		require.True(t, f.manager.IsAuthenticated())
		require.Equal(t, 1, f.backend.count("me"))
	})
}

func TestRegister(t *testing.T) {
	t.Run("chains into login", func(t *testing.T) {
		f := setupManager(t)
		res := f.manager.Register(context.Background(), "alice", "secret123", "Alice")
		require.True(t, res.Success, res.Error)
		require.True(t, f.manager.IsAuthenticated())
		require.Equal(t, 1, f.backend.count("token"))
	})

	t.Run("failure skips login", func(t *testing.T) {
		f := setupManager(t)
		res := f.manager.Register(context.Background(), "taken", "secret123", "Taken")
		require.False(t, res.Success)
		require.Equal(t, "Username already exists", res.Error)
		require.ErrorIs(t, res.Cause, authservice.ErrValidation)
		require.Zero(t, f.backend.count("token"))
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates tokens and keeps the user", func(t *testing.T) {
		f := setupManager(t)
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)

		res := f.manager.Refresh(context.Background())
		require.True(t, res.Success, res.Error)
		require.True(t, f.manager.IsAuthenticated())
		require.Equal(t, "A2", f.manager.AccessToken())
		require.Equal(t, "R2", f.store.Load().RefreshToken)
		require.Equal(t, "A2", f.manager.Token().AccessToken)
	})

	t.Run("no refresh token", func(t *testing.T) {
		f := setupManager(t)
		res := f.manager.Refresh(context.Background())
		require.False(t, res.Success)
		require.ErrorIs(t, res.Cause, session.ErrNoRefreshToken)
		require.Zero(t, f.backend.count("refresh"))
		require.Equal(t, session.Anonymous, f.manager.Phase())
	})

	t.Run("rejected refresh logs out", func(t *testing.T) {
		f := setupManager(t)
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
		f.backend.set(func(b *fakeBackend) { b.rejectRefresh = true })

		res := f.manager.Refresh(context.Background())
		require.False(t, res.Success)
		require.ErrorIs(t, res.Cause, authservice.ErrRefreshInvalid)
		require.False(t, f.manager.IsAuthenticated())
		require.Zero(t, f.storage.Len())
	})

	t.Run("network failure keeps the session", func(t *testing.T) {
		f := setupManager(t)
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
		f.backend.server.Close()

		res := f.manager.Refresh(context.Background())
		require.False(t, res.Success)
		require.ErrorIs(t, res.Cause, authservice.ErrNetwork)
		require.True(t, f.manager.IsAuthenticated())
	})
}

func TestRefreshAccessToken_Coalesces(t *testing.T) {
	f := setupManager(t)
	require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)

	const callers = 8
	gate := make(chan struct{})
	entered := make(chan struct{}, callers)
	f.backend.set(func(b *fakeBackend) {
		b.refreshGate = gate
		b.refreshEntered = entered
	})

	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = f.manager.RefreshAccessToken(context.Background())
		}(i)
	}

	<-entered
	// let the remaining callers join the in-flight refresh
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.Equal(t, 1, f.backend.count("refresh"))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "A2", tokens[i])
	}
}

func TestTransport_RefreshesThroughSession(t *testing.T) {
	f := setupManager(t)
	require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
	client := apiclient.New(f.backend.server.URL, f.manager, apiclient.WithLogger(zerolog.Nop()))

	require.NoError(t, client.Get(context.Background(), "/data", nil))
	require.Equal(t, 1, f.backend.count("data"))

	f.backend.expireAccess()
	require.NoError(t, client.Get(context.Background(), "/data", nil))
	require.Equal(t, 1, f.backend.count("refresh"))
	require.Equal(t, 3, f.backend.count("data"))
	require.Equal(t, "A2", f.store.Load().AccessToken)
	require.True(t, f.manager.IsAuthenticated())
	require.Empty(t, f.navigator.Routes())
}

func TestTransport_RejectedRefreshExpiresSession(t *testing.T) {
	f := setupManager(t)
	require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
	client := apiclient.New(f.backend.server.URL, f.manager, apiclient.WithLogger(zerolog.Nop()))

	f.backend.expireAccess()
	f.backend.set(func(b *fakeBackend) { b.rejectRefresh = true })

	err := client.Get(context.Background(), "/data", nil)
	var httpErr *apiclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	require.Equal(t, "token expired", httpErr.Message)
	require.False(t, errors.Is(err, authservice.ErrRefreshInvalid))

	require.False(t, f.manager.IsAuthenticated())
	require.Zero(t, f.storage.Len())
	require.Equal(t, []string{session.LoginRoute}, f.navigator.Routes())
	require.Equal(t, 1, f.backend.count("refresh"))
}

func TestSubscribe(t *testing.T) {
	f := setupManager(t)

	var phases []session.Phase
	unsubscribe := f.manager.Subscribe(func(s session.State) {
		phases = append(phases, s.Phase)
	})

	f.manager.Bootstrap(context.Background())
	require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
	require.Contains(t, phases, session.Authenticated)
	require.Equal(t, session.Authenticated, phases[len(phases)-1])

	unsubscribe()
	seen := len(phases)
	f.manager.Logout(context.Background())
	require.Len(t, phases, seen)
}

func TestSubscribe_UnsubscribeFromListener(t *testing.T) {
	f := setupManager(t)

	calls := 0
	var unsubscribe func()
	unsubscribe = f.manager.Subscribe(func(session.State) {
		calls++
		unsubscribe()
	})

	f.manager.Bootstrap(context.Background())
	require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
	require.Equal(t, 1, calls)
}

type jwtAuth struct {
	*authservice.Service
	access string
}

func (a *jwtAuth) Login(context.Context, string, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: a.access, RefreshToken: "R0", TokenType: "bearer"}, nil
}

func (a *jwtAuth) Me(context.Context, string) (*users.User, error) {
	return &users.User{ID: 1, Username: "alice"}, nil
}

func TestState_AccessExpiry(t *testing.T) {
	f := setupManager(t)
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test"))
	require.NoError(t, err)

	m := session.New(f.store, &jwtAuth{Service: f.auth, access: signed}, session.WithLogger(zerolog.Nop()))
	require.True(t, m.State().AccessExpiry.IsZero())

	require.True(t, m.Login(context.Background(), "alice", "secret123").Success)
	state := m.State()
	require.True(t, state.IsAuthenticated)
	require.True(t, exp.Equal(state.AccessExpiry))

	m.Logout(context.Background())
	require.True(t, m.State().AccessExpiry.IsZero())
	m.Close()
}

func TestCachedProfile(t *testing.T) {
	f := setupManager(t)
	f.store.SaveProfile(&users.User{ID: 1, Username: "alice"})

	require.Equal(t, "alice", f.manager.CachedProfile().Username)
	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.HasPermission("employees", "read"))
}

func TestClose_RejectsLogin(t *testing.T) {
	f := setupManager(t)
	f.manager.Close()
	res := f.manager.Login(context.Background(), "alice", "secret123")
	require.ErrorIs(t, res.Cause, session.ErrClosed)
	require.Zero(t, f.backend.count("token"))
}

func TestExpire(t *testing.T) {
	t.Run("rejected token ends the session", func(t *testing.T) {
		f := setupManager(t)
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)

		f.manager.Expire(context.Background(), "A1")
		f.manager.Close()
		require.False(t, f.manager.IsAuthenticated())
		require.Zero(t, f.storage.Len())
		require.Equal(t, []string{session.LoginRoute}, f.navigator.Routes())
		require.Equal(t, 1, f.backend.count("logout"))
	})

	t.Run("replaced token keeps the session", func(t *testing.T) {
		f := setupManager(t)
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
		f.manager.Logout(context.Background())
		require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)

		// a request sent with the first login's token fails late
		f.manager.Expire(context.Background(), "A1")
		f.manager.Close()
		require.True(t, f.manager.IsAuthenticated())
		require.Equal(t, "A2", f.store.Load().AccessToken)
		require.Empty(t, f.navigator.Routes())
		require.Equal(t, 1, f.backend.count("logout"))
	})

	t.Run("already anonymous still navigates", func(t *testing.T) {
		f := setupManager(t)
		f.manager.Bootstrap(context.Background())
		f.manager.Expire(context.Background(), "A1")
		require.Equal(t, []string{session.LoginRoute}, f.navigator.Routes())
		require.Zero(t, f.backend.count("logout"))
	})
}

// gatedBackend blocks the first Set after arm until release is closed
type gatedBackend struct {
	tokenstore.Backend
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Set(ctx context.Context, key, value string) error {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.Backend.Set(ctx, key, value)
}

func TestRefresh_StoreWriteDoesNotBlockReaders(t *testing.T) {
	f := setupManager(t)
	gated := &gatedBackend{
		Backend: f.storage,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := tokenstore.New(gated, tokenstore.WithLogger(zerolog.Nop()))
	m := session.New(store, f.auth, session.WithLogger(zerolog.Nop()))
	require.True(t, m.Login(context.Background(), "alice", "secret123").Success)

	gated.armed.Store(true)
	refreshed := make(chan session.Result, 1)
	go func() { refreshed <- m.Refresh(context.Background()) }()

	select {
	case <-gated.entered:
	case <-time.After(time.Second):
		t.Fatal("refresh never wrote the store")
	}

	read := make(chan string, 1)
	go func() {
		if m.HasPermission("employees", "read") && m.IsAuthenticated() {
			read <- m.AccessToken()
		}
		close(read)
	}()
	select {
	case tok := <-read:
		require.Equal(t, "A2", tok)
	case <-time.After(time.Second):
		t.Fatal("readers blocked by a store write")
	}

	close(gated.release)
	require.True(t, (<-refreshed).Success)
	require.Equal(t, "A2", store.Load().AccessToken)
	m.Close()
}

func TestClose_LogoutSkipsRevocation(t *testing.T) {
	for name, end := range map[string]func(m *session.Manager){
		"logout": func(m *session.Manager) { m.Logout(context.Background()) },
		"expire": func(m *session.Manager) { m.Expire(context.Background(), "A1") },
	} {
		t.Run(name, func(t *testing.T) {
			f := setupManager(t)
			require.True(t, f.manager.Login(context.Background(), "alice", "secret123").Success)
			f.manager.Close()

			require.NotPanics(t, func() { end(f.manager) })
			require.False(t, f.manager.IsAuthenticated())
			require.Zero(t, f.storage.Len())
			require.Never(t, func() bool { return f.backend.count("logout") > 0 }, 100*time.Millisecond, 10*time.Millisecond)
		})
	}
}
