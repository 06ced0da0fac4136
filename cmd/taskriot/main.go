// TaskRiot desktop shell
//
// The shell owns the application window and the backend sidecar that
// serves it. On startup it locates the bundled JavaScript runtime and
// service, spawns the service, and kills it again when the window closes.
//
// Usage:
//
//	taskriot [flags]            Run the shell
//	taskriot doctor [flags]     Show where resources resolve and what would launch
//	taskriot version            Show build information
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/taskriot/taskriot-shell/internal/host"
	"github.com/taskriot/taskriot-shell/internal/infrastructure/config"
	"github.com/taskriot/taskriot-shell/internal/infrastructure/logging"
	"github.com/taskriot/taskriot-shell/internal/sidecar"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const usage = `taskriot - TaskRiot desktop shell

Usage:
  taskriot [flags]            Run the shell
  taskriot doctor [flags]     Show where resources resolve and what would launch
  taskriot version            Show build information

Flags:
`

// options are the command-line settings shared by all subcommands.
type options struct {
	command     string
	configPath  string
	resourceDir string
	dataDir     string
	logLevel    string
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//   - stdout: Destination for command output (doctor, version, help)
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseArgs(args, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	switch opts.command {
	case "version":
		fmt.Fprintf(stdout, "taskriot %s (commit %s, built %s)\n", version, commit, date)
		return nil
	case "", "run", "doctor":
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if opts.command == "doctor" {
		return doctor(ctx, cfg, stdout)
	}

	log := logging.New(cfg.Logging, version)
	return runShell(ctx, cfg, log)
}

// parseArgs parses flags and the optional subcommand.
func parseArgs(args []string, stdout io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("taskriot", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&opts.configPath, "config", os.Getenv("TASKRIOT_CONFIG"), "Path to YAML config file (overrides TASKRIOT_CONFIG)")
	fs.StringVar(&opts.resourceDir, "resource-dir", "", "Override the packaged resource directory")
	fs.StringVar(&opts.dataDir, "data-dir", "", "Override the application data directory")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprint(stdout, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	rest := fs.Args()
	switch len(rest) {
	case 0:
	case 1:
		opts.command = rest[0]
	default:
		return opts, fmt.Errorf("unexpected arguments: %v", rest[1:])
	}

	return opts, nil
}

// loadConfig loads the config file and applies command-line overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.resourceDir != "" {
		cfg.Paths.ResourceDir = opts.resourceDir
	}
	if opts.dataDir != "" {
		cfg.Paths.DataDir = opts.dataDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	return cfg, nil
}

// newHost creates the application host from configuration.
func newHost(cfg *config.Config) *host.Host {
	return host.New(host.Config{
		Identifier:  cfg.App.Identifier,
		ProductName: cfg.App.ProductName,
		ResourceDir: cfg.Paths.ResourceDir,
		DataDir:     cfg.Paths.DataDir,
	})
}

// runShell wires the sidecar supervisor into the host lifecycle and blocks
// until the window closes or ctx is cancelled.
func runShell(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("starting TaskRiot shell",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	h := newHost(cfg)
	h.SetLogger(log.With("component", "host"))

	sup := sidecar.New(h, sidecar.WithLogger(log.With("component", "sidecar")))

	// A spawn failure aborts setup, so the window is never shown.
	h.OnSetup(sup.Setup)
	h.OnWindowEvent(func(ev host.WindowEvent) {
		if ev.Kind == host.CloseRequested {
			sup.CloseRequested()
		}
	})

	if err := h.Run(ctx); err != nil {
		return err
	}

	log.Info("TaskRiot shell stopped")
	return nil
}
