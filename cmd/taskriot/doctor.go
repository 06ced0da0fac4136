package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/taskriot/taskriot-shell/internal/infrastructure/config"
	"github.com/taskriot/taskriot-shell/internal/infrastructure/database"
	"github.com/taskriot/taskriot-shell/internal/sidecar"
)

// doctor prints how the shell sees its environment: platform directories,
// every resource probe, the development tree, the launch plan, and the
// sidecar's database.
// Nothing is created or spawned.
func doctor(ctx context.Context, cfg *config.Config, w io.Writer) error {
	h := newHost(cfg)
	sup := sidecar.New(h)

	fmt.Fprintf(w, "taskriot %s (commit %s)\n\n", version, commit)

	fmt.Fprintln(w, "Directories:")
	printPath(w, "resources", h.ResourceDir)
	printPath(w, "app data", h.AppDataDir)
	printPath(w, "executable", h.Executable)
	fmt.Fprintln(w)

	for _, name := range []string{sidecar.RuntimeResource, sidecar.ServiceResource} {
		fmt.Fprintf(w, "Resource %q:\n", name)
		for _, p := range sup.Locator().Explain(name) {
			state := "missing"
			if p.Exists {
				state = "found"
			}
			fmt.Fprintf(w, "  %-22s %-8s %s\n", p.Source, state, p.Path)
		}
		if path, ok := sup.Locator().Resolve(name); ok {
			fmt.Fprintf(w, "  => %s\n", path)
		} else {
			fmt.Fprintln(w, "  => not found")
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Development tree:")
	if probe, ok := sup.DevelopmentProbe(); ok {
		state := "missing"
		if probe.Exists {
			state = "found"
		}
		fmt.Fprintf(w, "  %-22s %-8s %s\n", probe.Source, state, probe.Path)
	} else {
		fmt.Fprintln(w, "  unavailable (executable path unknown)")
	}
	fmt.Fprintln(w)

	plan, err := sup.Plan()
	if err != nil {
		return fmt.Errorf("planning sidecar launch: %w", err)
	}
	if plan == nil {
		fmt.Fprintln(w, "Launch plan: none (the shell would run without a backend)")
		return nil
	}

	fmt.Fprintf(w, "Launch plan: %s\n", plan.Mode)
	fmt.Fprintf(w, "  command   %s %s\n", plan.Runtime, strings.Join(plan.Args, " "))
	fmt.Fprintf(w, "  directory %s\n", plan.WorkDir)
	fmt.Fprintf(w, "  env       %s\n", strings.Join(plan.Env, " "))
	fmt.Fprintln(w)

	printDatabase(ctx, w, plan.DatabasePath)
	return nil
}

func printPath(w io.Writer, label string, fn func() (string, error)) {
	path, err := fn()
	if err != nil {
		fmt.Fprintf(w, "  %-10s unavailable (%v)\n", label, err)
		return
	}
	fmt.Fprintf(w, "  %-10s %s\n", label, path)
}

// printDatabase reports the sidecar's migration state. Problems here are
// informational and never fail the command.
func printDatabase(ctx context.Context, w io.Writer, path string) {
	fmt.Fprintf(w, "Database: %s\n", path)

	db, err := database.OpenReadOnly(ctx, database.Config{Path: path})
	if errors.Is(err, database.ErrNotFound) {
		fmt.Fprintln(w, "  not created yet (the sidecar creates it on first start)")
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  unreadable: %v\n", err)
		return
	}
	defer db.Close() //nolint:errcheck // Read-only

	status, err := db.Migrations(ctx)
	if err != nil {
		fmt.Fprintf(w, "  unreadable: %v\n", err)
		return
	}
	if !status.Tracked {
		fmt.Fprintln(w, "  no migrations recorded")
		return
	}

	fmt.Fprintf(w, "  migrations %d applied", len(status.Applied))
	if latest := status.Latest(); latest != nil {
		fmt.Fprintf(w, ", latest %s (batch %d)", latest.Name, status.LatestBatch())
	}
	fmt.Fprintln(w)
}
