package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/hr-dashboard/devserver"
	"github.com/jrsteele09/hr-dashboard/internal/config"
	"github.com/jrsteele09/hr-dashboard/internal/logging"
	"github.com/jrsteele09/hr-dashboard/token"
	refreshrepofake "github.com/jrsteele09/hr-dashboard/token/refresh/repofake"
	"github.com/jrsteele09/hr-dashboard/tokenstore"
	fakeuserrepo "github.com/jrsteele09/hr-dashboard/users/repofake"
	"github.com/rs/zerolog/log"
)

const revocationCleanupInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(logging.Options{Level: c.GetLogLevel(), Dev: c.IsDev()})
	displayAppname(c.GetAppName())

	opts, closeFn, err := revocationOptions(c)
	if err != nil {
		return err
	}
	defer closeFn()

	repos := devserver.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Roles:         fakeuserrepo.NewFakeRoleRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}
	handler, err := devserver.New(c, repos, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupRevokedTokens(ctx, handler.Tokens())

	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// revocationOptions shares revoked tokens through redis when configured
func revocationOptions(c config.Config) ([]devserver.Option, func() error, error) {
	noop := func() error { return nil }
	switch c.GetRevocationStore() {
	case "", "memory":
		return nil, noop, nil
	case "redis":
		client, err := tokenstore.NewRedisClient(c.GetRedisURL())
		if err != nil {
			return nil, noop, err
		}
		cache := token.NewRedisRevokedTokenCache(client, c.GetTokenKeyPrefix())
		return []devserver.Option{devserver.WithRevokedTokenCache(cache)}, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown revocation store %q", c.GetRevocationStore())
	}
}

func cleanupRevokedTokens(ctx context.Context, tokens *token.Manager) {
	ticker := time.NewTicker(revocationCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tokens.CleanupRevokedTokens()
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
