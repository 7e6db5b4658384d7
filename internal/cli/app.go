// Package cli implements hrctl, a terminal front end for the dashboard
// session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/hr-dashboard/apiclient"
	"github.com/jrsteele09/hr-dashboard/authservice"
	"github.com/jrsteele09/hr-dashboard/guard"
	"github.com/jrsteele09/hr-dashboard/hrapi"
	"github.com/jrsteele09/hr-dashboard/internal/config"
	"github.com/jrsteele09/hr-dashboard/internal/logging"
	"github.com/jrsteele09/hr-dashboard/notifications"
	"github.com/jrsteele09/hr-dashboard/session"
	"github.com/jrsteele09/hr-dashboard/tokenstore"
	"github.com/rs/zerolog"
)

var ErrLoginRequired = errors.New("not logged in, run 'hrctl login'")

// App carries what the commands share. The token store is opened once and
// kept for the App's lifetime.
type App struct {
	vars   config.EnvVars
	cfg    config.Config
	out    io.Writer
	in     io.Reader
	reader *bufio.Reader
	logger zerolog.Logger

	store      *tokenstore.Store
	closeStore func() error
}

func NewApp(vars config.EnvVars, in io.Reader, out io.Writer) *App {
	return &App{
		vars:   vars,
		cfg:    config.FromVars(vars),
		in:     in,
		out:    out,
		logger: zerolog.Nop(),
	}
}

// configure applies profile and flag overrides. It runs before every
// command.
func (a *App) configure(profile Profile, apiURL, store string) {
	vars := a.vars
	profile.Apply(&vars)
	if apiURL != "" {
		vars.APIURL = apiURL
	}
	if store != "" {
		vars.TokenStore = store
	}
	a.cfg = config.FromVars(vars)
	a.logger = logging.New(logging.Options{Level: a.cfg.GetLogLevel(), Dev: a.cfg.IsDev()})
}

func (a *App) openStore() (*tokenstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, closeFn, err := tokenstore.Open(a.cfg, tokenstore.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.store, a.closeStore = store, closeFn
	return store, nil
}

// Close releases the token store
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// workspace is one command's view of the session
type workspace struct {
	session *session.Manager
	api     *apiclient.Client
	hr      *hrapi.Client
	notes   *notifications.Center
}

// open restores the stored session. Callers must Close the session so
// background logouts finish before the process exits.
func (a *App) open(ctx context.Context) (*workspace, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	auth := authservice.New(a.cfg.GetAPIURL(), authservice.WithHTTPClient(&http.Client{Timeout: a.cfg.GetHTTPTimeout()}))
	mgr := session.New(store, auth,
		session.WithLogger(a.logger),
		session.WithLogoutTimeout(a.cfg.GetLogoutTimeout()),
		session.WithNavigator(session.NavigatorFunc(func(route string) {
			if route == session.LoginRoute {
				fmt.Fprintln(a.out, "Session expired, please log in again.")
			}
		})),
	)
	mgr.Bootstrap(ctx)

	api := apiclient.New(a.cfg.GetAPIURL(), mgr,
		apiclient.WithTimeout(a.cfg.GetHTTPTimeout()),
		apiclient.WithLogger(a.logger),
	)
	hr := hrapi.New(api)
	notes := notifications.New(hr, store.Backend(), notifications.WithLogger(a.logger))
	return &workspace{session: mgr, api: api, hr: hr, notes: notes}, nil
}

// protected runs fn only for an authenticated session
func (a *App) protected(ctx context.Context, fn func(*workspace) error) error {
	ws, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer ws.session.Close()

	if decision := guard.Protected(ws.session); decision.Outcome != guard.ShowContent {
		return ErrLoginRequired
	}
	return fn(ws)
}

// public runs fn whatever the session state
func (a *App) public(ctx context.Context, fn func(*workspace) error) error {
	ws, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer ws.session.Close()
	return fn(ws)
}
