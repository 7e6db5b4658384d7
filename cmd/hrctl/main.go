package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/hr-dashboard/internal/cli"
	"github.com/jrsteele09/hr-dashboard/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	vars, err := config.Parse()
	if err != nil {
		return err
	}
	app := cli.NewApp(vars, os.Stdin, os.Stdout)
	defer app.Close()

	return cli.NewRootCommand(app).ExecuteContext(ctx)
}
