// Package main is the entry point for the strata image builder.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/cmd/strata/commands"
	"github.com/stratabuild/strata/internal/app"
	"github.com/stratabuild/strata/internal/core/domain"
	_ "github.com/stratabuild/strata/internal/wiring"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available if initialization failed.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	cli := commands.New(components.App)
	cli.SetArgs(args)

	if err := cli.Execute(ctx); err != nil {
		// zerr prints a report with stack trace and metadata under %+v.
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		if errors.Is(err, domain.ErrBuildFailed) {
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
