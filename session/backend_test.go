package session_test

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/hr-dashboard/authservice"
	"github.com/jrsteele09/hr-dashboard/session"
	"github.com/jrsteele09/hr-dashboard/tokenstore"
	"github.com/rs/zerolog"
)

// fakeBackend implements the auth endpoints with in-memory token tables
type fakeBackend struct {
	server *httptest.Server

	lock           sync.Mutex
	issued         int
	access         map[string]bool
	refresh        map[string]bool
	calls          map[string]int
	meFailures     int
	rejectRefresh  bool
	dropLogout     bool
	refreshGate    chan struct{}
	refreshEntered chan struct{}
}

var aliceProfile = map[string]any{
	"id":       1,
	"username": "alice",
	"roles": []any{map[string]any{
		"id":          1,
		"name":        "admin",
		"permissions": []any{map[string]string{"resource": "employees", "action": "read"}},
	}},
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		access:  map[string]bool{},
		refresh: map[string]bool{},
		calls:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", b.handleToken)
	mux.HandleFunc("POST /auth/register", b.handleRegister)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("POST /auth/logout", b.handleLogout)
	mux.HandleFunc("GET /auth/me", b.handleMe)
	mux.HandleFunc("GET /data", b.handleData)
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) count(endpoint string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.calls[endpoint]
}

func (b *fakeBackend) hit(endpoint string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.calls[endpoint]++
}

// issue must be called with the lock held
func (b *fakeBackend) issue() (string, string) {
	b.issued++
	access, refresh := fmt.Sprintf("A%d", b.issued), fmt.Sprintf("R%d", b.issued)
	b.access[access] = true
	b.refresh[refresh] = true
	return access, refresh
}

// seed issues a token pair as if an earlier login had happened
func (b *fakeBackend) seed() (string, string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.issue()
}

// expireAccess invalidates every outstanding access token
func (b *fakeBackend) expireAccess() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.access = map[string]bool{}
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.lock.Lock()
	defer b.lock.Unlock()
	fn(b)
}

func (b *fakeBackend) bearerValid(r *http.Request) bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.access[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	b.hit("token")
	_ = r.ParseForm()
	if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret123" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Incorrect username or password"})
		return
	}
	b.lock.Lock()
	access, refresh := b.issue()
	b.lock.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access, "refresh_token": refresh, "token_type": "bearer"})
}

func (b *fakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	b.hit("register")
	_ = r.ParseForm()
	if r.PostForm.Get("username") == "taken" {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Username already exists"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.hit("refresh")
	_ = r.ParseForm()

	b.lock.Lock()
	gate, entered := b.refreshGate, b.refreshEntered
	b.lock.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	presented := r.PostForm.Get("refresh_token")
	if b.rejectRefresh || !b.refresh[presented] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid refresh token"})
		return
	}
	delete(b.refresh, presented)
	access, refresh := b.issue()
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access, "refresh_token": refresh})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.hit("logout")
	b.lock.Lock()
	drop := b.dropLogout
	b.lock.Unlock()
	if drop {
		// close the connection without a response
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			_ = conn.(net.Conn).Close()
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.hit("me")
	b.lock.Lock()
	fail := b.meFailures > 0
	if fail {
		b.meFailures--
	}
	b.lock.Unlock()
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database unavailable"})
		return
	}
	if !b.bearerValid(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Could not validate credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": aliceProfile})
}

func (b *fakeBackend) handleData(w http.ResponseWriter, r *http.Request) {
	b.hit("data")
	if !b.bearerValid(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type navRecorder struct {
	lock   sync.Mutex
	routes []string
}

func (n *navRecorder) Navigate(route string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navRecorder) Routes() []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]string(nil), n.routes...)
}

type managerFixture struct {
	backend   *fakeBackend
	storage   *tokenstore.MemoryBackend
	store     *tokenstore.Store
	auth      *authservice.Service
	navigator *navRecorder
	manager   *session.Manager
}

func setupManager(t *testing.T, opts ...session.Option) *managerFixture {
	t.Helper()
	f := &managerFixture{
		backend:   newFakeBackend(t),
		storage:   tokenstore.NewMemoryBackend(),
		navigator: &navRecorder{},
	}
	f.store = tokenstore.New(f.storage, tokenstore.WithLogger(zerolog.Nop()))
	f.auth = authservice.New(f.backend.server.URL, authservice.WithHTTPClient(f.backend.server.Client()))
	f.manager = newManager(f, opts...)
	return f
}

func newManager(f *managerFixture, opts ...session.Option) *session.Manager {
	opts = append([]session.Option{
		session.WithNavigator(f.navigator),
		session.WithLogger(zerolog.Nop()),
	}, opts...)
	m := session.New(f.store, f.auth, opts...)
	return m
}
