package devserver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/hr-dashboard/devserver"
	"github.com/jrsteele09/hr-dashboard/internal/config"
	"github.com/jrsteele09/hr-dashboard/token"
	refreshrepofake "github.com/jrsteele09/hr-dashboard/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/hr-dashboard/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const adminPassword = "Admin1234"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type serverFixture struct {
	server *devserver.Server
	http   *httptest.Server
	repos  devserver.Repos
	clock  *clock
}

func testConfig(mutate ...func(*config.EnvVars)) config.Config {
	vars := config.Defaults()
	vars.Env = "TEST"
	vars.AdminPassword = adminPassword
	vars.AllowedOrigins = "http://localhost:5173"
	for _, m := range mutate {
		m(&vars)
	}
	return config.FromVars(vars)
}

func setupServer(t *testing.T, opts ...devserver.Option) *serverFixture {
	t.Helper()
	f := &serverFixture{
		repos: devserver.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			Roles:         fakeuserrepo.NewFakeRoleRepo(),
			RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		},
		clock: &clock{now: time.Now()},
	}
	opts = append([]devserver.Option{
		devserver.WithLogger(zerolog.Nop()),
		devserver.WithClock(f.clock.Now),
	}, opts...)

	srv, err := devserver.New(testConfig(), f.repos, opts...)
	require.NoError(t, err)
	f.server = srv
	f.http = httptest.NewServer(srv)
	t.Cleanup(f.http.Close)
	return f
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func (f *serverFixture) do(t *testing.T, method, path string, form url.Values, bearer string) response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, f.http.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, header: resp.Header, body: map[string]any{}}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out.body), string(data))
	}
	return out
}

func (f *serverFixture) login(t *testing.T, username, password string) token.Response {
	t.Helper()
	resp := f.do(t, http.MethodPost, devserver.RouteAuthToken, url.Values{"username": {username}, "password": {password}}, "")
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	return token.Response{
		AccessToken:  resp.body["access_token"].(string),
		RefreshToken: resp.body["refresh_token"].(string),
		TokenType:    resp.body["token_type"].(string),
	}
}

func (f *serverFixture) register(t *testing.T, username, password, name string) response {
	t.Helper()
	return f.do(t, http.MethodPost, devserver.RouteAuthRegister, url.Values{"username": {username}, "password": {password}, "name": {name}}, "")
}

func TestServer_Bootstrap(t *testing.T) {
	f := setupServer(t)

	roles, err := f.repos.Roles.List()
	require.NoError(t, err)
	require.Len(t, roles, 3)

	admin, err := f.repos.Users.GetByUsername("admin")
	require.NoError(t, err)
	require.True(t, admin.HasRole(devserver.RoleAdmin))
	require.True(t, admin.HasPermission("employees", "read"))
	require.True(t, admin.CheckPassword(adminPassword))
	require.Equal(t, adminPassword, f.server.AdminPassword)

	t.Run("existing admin is kept", func(t *testing.T) {
		again, err := devserver.New(testConfig(), f.repos, devserver.WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		require.Empty(t, again.AdminPassword)
	})

	t.Run("generated password", func(t *testing.T) {
		repos := devserver.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			Roles:         fakeuserrepo.NewFakeRoleRepo(),
			RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		}
		cfg := testConfig(func(v *config.EnvVars) { v.AdminPassword = "" })
		srv, err := devserver.New(cfg, repos, devserver.WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		require.NotEmpty(t, srv.AdminPassword)

		admin, err := repos.Users.GetByUsername("admin")
		require.NoError(t, err)
		require.True(t, admin.CheckPassword(srv.AdminPassword))
	})
}

func TestServer_Login(t *testing.T) {
	f := setupServer(t)

	pair := f.login(t, "admin", adminPassword)
	require.Equal(t, "bearer", pair.TokenType)

	t.Run("me", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, devserver.RouteAuthMe, nil, pair.AccessToken)
		require.Equal(t, http.StatusOK, resp.status)
		require.Equal(t, "success", resp.body["status"])
		data := resp.body["data"].(map[string]any)
		require.Equal(t, "admin", data["username"])
		require.NotContains(t, data, "PasswordHash")
		require.NotEmpty(t, data["roles"])
	})

	tests := []struct {
		name     string
		form     url.Values
		status   int
		expected string
	}{
		{"wrong password", url.Values{"username": {"admin"}, "password": {"nope"}}, http.StatusUnauthorized, "Incorrect username or password"},
		{"unknown user", url.Values{"username": {"ghost"}, "password": {"nope"}}, http.StatusUnauthorized, "Incorrect username or password"},
		{"missing fields", url.Values{"username": {"admin"}}, http.StatusBadRequest, "username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, devserver.RouteAuthToken, tt.form, "")
			require.Equal(t, tt.status, resp.status)
			require.Equal(t, tt.expected, resp.body["message"])
		})
	}

	t.Run("blocked user", func(t *testing.T) {
		require.Equal(t, http.StatusOK, f.register(t, "blocked.user", "Secret123", "Blocked").status)
		require.NoError(t, f.repos.Users.SetBlocked("blocked.user", true))
		resp := f.do(t, http.MethodPost, devserver.RouteAuthToken, url.Values{"username": {"blocked.user"}, "password": {"Secret123"}}, "")
		require.Equal(t, http.StatusForbidden, resp.status)
	})
}

func TestServer_Me(t *testing.T) {
	f := setupServer(t)

	t.Run("missing token", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, devserver.RouteAuthMe, nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.status)
		require.Equal(t, "missing bearer token", resp.body["message"])
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, devserver.RouteAuthMe, nil, "garbage")
		require.Equal(t, http.StatusUnauthorized, resp.status)
		require.Equal(t, "invalid token", resp.body["message"])
	})

	t.Run("expired token", func(t *testing.T) {
		pair := f.login(t, "admin", adminPassword)
		f.clock.Advance(time.Hour)
		t.Cleanup(func() { f.clock.Advance(-time.Hour) })
		resp := f.do(t, http.MethodGet, devserver.RouteAuthMe, nil, pair.AccessToken)
		require.Equal(t, http.StatusUnauthorized, resp.status)
		require.Equal(t, "token expired", resp.body["message"])
	})
}

func TestServer_Register(t *testing.T) {
	f := setupServer(t)

	resp := f.register(t, "bob.tran", "Secret123", "Bob Tran")
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, true, resp.body["success"])

	bob, err := f.repos.Users.GetByUsername("bob.tran")
	require.NoError(t, err)
	require.Equal(t, "Bob Tran", bob.Name)
	require.Equal(t, []string{devserver.RoleEmployee}, bob.RoleNames())
	require.True(t, bob.HasPermission("salary", "read"))
	require.False(t, bob.HasPermission("employees", "read"))

	tests := []struct {
		name     string
		username string
		password string
		status   int
		expected string
	}{
		{"taken", "bob.tran", "Secret123", http.StatusConflict, "username already exists"},
		{"short username", "bo", "Secret123", http.StatusBadRequest, "username must be at least 3 characters"},
		{"weak password", "carol", "secret", http.StatusBadRequest, "password must be at least 8 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.register(t, tt.username, tt.password, "Someone")
			require.Equal(t, tt.status, resp.status)
			require.Equal(t, tt.expected, resp.body["message"])
		})
	}

	t.Run("registered user can log in", func(t *testing.T) {
		pair := f.login(t, "bob.tran", "Secret123")
		require.NotEmpty(t, pair.AccessToken)
	})
}

func TestServer_Refresh(t *testing.T) {
	f := setupServer(t)
	first := f.login(t, "admin", adminPassword)

	resp := f.do(t, http.MethodPost, devserver.RouteAuthRefresh, url.Values{"refresh_token": {first.RefreshToken}}, "")
	require.Equal(t, http.StatusOK, resp.status)
	rotated := resp.body["refresh_token"].(string)
	require.NotEqual(t, first.RefreshToken, rotated)

	t.Run("old refresh token rejected", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, devserver.RouteAuthRefresh, url.Values{"refresh_token": {first.RefreshToken}}, "")
		require.Equal(t, http.StatusUnauthorized, resp.status)
		require.Equal(t, "invalid refresh token", resp.body["message"])
	})

	t.Run("missing refresh token", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, devserver.RouteAuthRefresh, url.Values{}, "")
		require.Equal(t, http.StatusBadRequest, resp.status)
	})
}

func TestServer_Logout(t *testing.T) {
	f := setupServer(t)
	pair := f.login(t, "admin", adminPassword)

	resp := f.do(t, http.MethodPost, devserver.RouteAuthLogout, nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.status)

	resp = f.do(t, http.MethodGet, devserver.RouteAuthMe, nil, pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, resp.status)
	require.Equal(t, "token revoked", resp.body["message"])

	resp = f.do(t, http.MethodPost, devserver.RouteAuthRefresh, url.Values{"refresh_token": {pair.RefreshToken}}, "")
	require.Equal(t, http.StatusUnauthorized, resp.status)

	t.Run("without token", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, devserver.RouteAuthLogout, nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.status)
	})
}

func TestServer_Permissions(t *testing.T) {
	f := setupServer(t)
	require.Equal(t, http.StatusOK, f.register(t, "erin", "Secret123", "Erin").status)
	employee := f.login(t, "erin", "Secret123")
	admin := f.login(t, "admin", adminPassword)

	routes := []string{
		devserver.RouteEmployees,
		devserver.RouteAnniversaries,
		devserver.RouteReport,
		devserver.RoutePayroll,
		devserver.RouteAttendance,
	}
	for _, route := range routes {
		t.Run(route, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, route, nil, "")
			require.Equal(t, http.StatusUnauthorized, resp.status)

			resp = f.do(t, http.MethodGet, route, nil, employee.AccessToken)
			require.Equal(t, http.StatusForbidden, resp.status)
			require.Contains(t, resp.body["message"], "permission denied")

			resp = f.do(t, http.MethodGet, route, nil, admin.AccessToken)
			require.Equal(t, http.StatusOK, resp.status)
			require.Equal(t, "success", resp.body["status"])
		})
	}
}

func TestServer_Cors(t *testing.T) {
	f := setupServer(t)

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, f.http.URL+devserver.RouteAuthToken, nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := f.http.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := preflight("http://localhost:5173")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")

	resp = preflight("http://evil.example")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestDataset(t *testing.T) {
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	data := devserver.DefaultDataset().WithNow(func() time.Time { return now })

	t.Run("anniversaries", func(t *testing.T) {
		upcoming := data.Anniversaries()
		require.Len(t, upcoming, 1)
		require.Equal(t, "Alice Nguyen", upcoming[0].FullName)
		require.Equal(t, "2024-04-15", upcoming[0].AnniversaryDate)
		require.Equal(t, 5, upcoming[0].MilestoneYears)
	})

	t.Run("report", func(t *testing.T) {
		report := data.Report()
		require.Equal(t, 7, report.TotalEmployees)
		require.Equal(t, "Engineering", report.ByDepartment[0].DepartmentName)
		require.Equal(t, 3, report.ByDepartment[0].Count)

		total := 0
		for _, s := range report.ByStatus {
			total += s.Count
		}
		require.Equal(t, 7, total)
	})

	t.Run("joins", func(t *testing.T) {
		employees := data.EmployeeList()
		require.Equal(t, "Engineering", employees[0].DepartmentName())
		require.Equal(t, "Manager", employees[0].PositionName())

		payroll := data.PayrollList()
		require.Equal(t, "Alice Nguyen", payroll[0].Employee.FullName)
		require.InDelta(t, payroll[0].BaseSalary+payroll[0].Bonus-payroll[0].Deductions, payroll[0].NetSalary, 0.001)
	})

	t.Run("two months of payroll and attendance", func(t *testing.T) {
		require.Len(t, data.PayrollList(), 14)
		require.Len(t, data.AttendanceList(), 14)

		months := map[string]int{}
		for _, p := range data.PayrollList() {
			months[p.SalaryMonth]++
		}
		require.Equal(t, map[string]int{"2024-04-01": 7, "2024-05-01": 7}, months)
	})
}
