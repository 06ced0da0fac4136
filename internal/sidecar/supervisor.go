package sidecar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/taskriot/taskriot-shell/internal/infrastructure/database"
	"github.com/taskriot/taskriot-shell/internal/process"
	"github.com/taskriot/taskriot-shell/internal/resource"
)

// Launch contract shared with the sidecar service. These are fixed for
// every install.
const (
	// RuntimeResource is the bundled JavaScript runtime.
	RuntimeResource = "node"

	// ServiceResource is the bundled, built service directory.
	ServiceResource = "service-dist"

	// DevRuntime is looked up through PATH when running from a source tree.
	DevRuntime = "node"

	// EntryPoint is passed to the runtime, relative to the service directory.
	EntryPoint = "src/index.js"

	// DatabaseFile is created by the service inside the app data directory.
	DatabaseFile = "dev.sqlite3"

	DatabasePathEnv = "DATABASE_PATH"
	PortEnv         = "PORT"
	Port            = "3001"
)

// devServiceOffset locates the service source tree from the executable's
// directory in a development build (<repo>/web/src-tauri/target/<profile>).
var devServiceOffset = []string{"..", "..", "..", "service"}

// SourceDevelopmentTree labels the development service tree probe.
const SourceDevelopmentTree resource.Source = "exe_dir/../../../service"

// Mode says which launch path was chosen.
type Mode string

const (
	// ModeBundled runs the resolved runtime against the packaged service.
	ModeBundled Mode = "bundled"

	// ModeDevelopment runs the PATH runtime against the source tree.
	ModeDevelopment Mode = "development"
)

// LaunchConfig is everything needed to spawn the sidecar once.
type LaunchConfig struct {
	Mode Mode

	// Runtime is an absolute path (bundled) or a bare name resolved
	// through PATH (development).
	Runtime string

	WorkDir      string
	DatabasePath string
	Env          []string
	Args         []string

	// InheritOutput shares the shell's stdout/stderr with the sidecar.
	InheritOutput bool
}

// ProcessConfig converts the launch configuration for the process manager.
func (c *LaunchConfig) ProcessConfig() process.Config {
	return process.Config{
		Name:          "sidecar",
		Binary:        c.Runtime,
		Args:          c.Args,
		Env:           c.Env,
		WorkDir:       c.WorkDir,
		InheritOutput: c.InheritOutput,
	}
}

// Paths is the part of the host the supervisor needs.
type Paths interface {
	ResourceDir() (string, error)
	AppDataDir() (string, error)
	Executable() (string, error)
}

// Handle is a spawned sidecar.
type Handle interface {
	Kill() error
	PID() int
}

// Spawner starts the sidecar described by cfg.
type Spawner func(ctx context.Context, cfg *LaunchConfig) (Handle, error)

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSpawner replaces the process-backed spawner.
func WithSpawner(spawn Spawner) Option {
	return func(s *Supervisor) {
		s.spawn = spawn
	}
}

// WithLogger sets the supervisor's logger. The default spawner hands it
// to the process manager as well.
func WithLogger(logger Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// Supervisor owns the sidecar's lifecycle for one application run.
//
// Setup runs once during application setup; CloseRequested runs when the
// window closes, possibly on another goroutine. The only state they share
// is the child slot, guarded by mu and never held across a spawn.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	paths   Paths
	locator *resource.Locator
	spawn   Spawner
	logger  Logger

	// Filesystem hooks, replaced in tests.
	ensureDir func(path string) error
	dirExists func(path string) bool

	setupRan atomic.Bool

	mu    sync.Mutex
	child Handle
}

// New creates a Supervisor that resolves resources through paths.
func New(paths Paths, opts ...Option) *Supervisor {
	s := &Supervisor{
		paths:     paths,
		locator:   resource.NewLocator(paths),
		logger:    noopLogger{},
		ensureDir: database.EnsureDir,
		dirExists: dirExists,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.spawn == nil {
		s.spawn = processSpawner(s.logger)
	}
	return s
}

// processSpawner starts the sidecar with a process.Manager.
func processSpawner(logger Logger) Spawner {
	return func(ctx context.Context, cfg *LaunchConfig) (Handle, error) {
		mgr := process.NewManager(cfg.ProcessConfig())
		mgr.SetLogger(logger)
		if err := mgr.Start(ctx); err != nil {
			return nil, err
		}
		return mgr, nil
	}
}

// Locator returns the resource locator used for resolution.
func (s *Supervisor) Locator() *resource.Locator {
	return s.locator
}

// Setup chooses a launch path and spawns the sidecar.
//
// The bundled path is used when both the runtime and the service bundle
// resolve. Otherwise the development source tree is used if it exists.
// If neither is available Setup returns nil and no sidecar runs.
//
// A spawn failure is returned wrapped in ErrSpawnFailed and is meant to
// abort application startup. A failed bundled spawn does not fall back to
// the development tree.
//
// Setup may run only once; later calls return ErrAlreadySetup.
func (s *Supervisor) Setup(ctx context.Context) error {
	if !s.setupRan.CompareAndSwap(false, true) {
		return ErrAlreadySetup
	}

	plan, err := s.Plan()
	if err != nil {
		return err
	}
	if plan == nil {
		s.logger.Warn("no sidecar available, continuing without backend",
			"runtime", RuntimeResource,
			"service", ServiceResource,
		)
		return nil
	}

	// Best-effort: if the directory cannot be created the sidecar fails
	// to open its database and reports it itself.
	_ = s.ensureDir(plan.DatabasePath)

	s.logger.Info("spawning sidecar",
		"mode", plan.Mode,
		"runtime", plan.Runtime,
		"dir", plan.WorkDir,
		"database", plan.DatabasePath,
	)

	child, err := s.spawn(ctx, plan)
	if err != nil {
		return fmt.Errorf("%w: %s sidecar (%s %s): %w", ErrSpawnFailed, plan.Mode, plan.Runtime, EntryPoint, err)
	}

	s.mu.Lock()
	s.child = child
	s.mu.Unlock()

	s.logger.Info("sidecar spawned", "mode", plan.Mode, "pid", child.PID())
	return nil
}

// Plan returns the launch configuration Setup would use, without creating
// directories or spawning. It returns nil, nil when neither the bundled
// resources nor the development tree are present.
func (s *Supervisor) Plan() (*LaunchConfig, error) {
	if plan, err := s.bundledPlan(); plan != nil || err != nil {
		return plan, err
	}
	return s.developmentPlan()
}

func (s *Supervisor) bundledPlan() (*LaunchConfig, error) {
	runtimePath, ok := s.locator.Resolve(RuntimeResource)
	if !ok {
		return nil, nil
	}
	serviceDir, ok := s.locator.Resolve(ServiceResource)
	if !ok {
		return nil, nil
	}

	dbPath, err := s.databasePath()
	if err != nil {
		return nil, err
	}

	return &LaunchConfig{
		Mode:         ModeBundled,
		Runtime:      runtimePath,
		WorkDir:      serviceDir,
		DatabasePath: dbPath,
		Env:          launchEnv(dbPath),
		Args:         []string{EntryPoint},
	}, nil
}

func (s *Supervisor) developmentPlan() (*LaunchConfig, error) {
	probe, ok := s.DevelopmentProbe()
	if !ok || !probe.Exists {
		return nil, nil
	}
	serviceDir := probe.Path

	dbPath, err := s.databasePath()
	if err != nil {
		return nil, err
	}

	return &LaunchConfig{
		Mode:          ModeDevelopment,
		Runtime:       DevRuntime,
		WorkDir:       serviceDir,
		DatabasePath:  dbPath,
		Env:           launchEnv(dbPath),
		Args:          []string{EntryPoint},
		InheritOutput: true,
	}, nil
}

// DevelopmentProbe reports where the development service tree is expected
// and whether it is there. ok is false when the executable path is
// unavailable, in which case there is nothing to probe.
func (s *Supervisor) DevelopmentProbe() (probe resource.Probe, ok bool) {
	exe, err := s.paths.Executable()
	if err != nil || exe == "" {
		return resource.Probe{}, false
	}

	parts := append([]string{filepath.Dir(exe)}, devServiceOffset...)
	dir := filepath.Join(parts...)
	return resource.Probe{
		Source: SourceDevelopmentTree,
		Path:   dir,
		Exists: s.dirExists(dir),
	}, true
}

// DatabasePath returns where the sidecar keeps its database.
func (s *Supervisor) DatabasePath() (string, error) {
	return s.databasePath()
}

func (s *Supervisor) databasePath() (string, error) {
	dir, err := s.paths.AppDataDir()
	if err != nil {
		return "", fmt.Errorf("resolving database path: %w", err)
	}
	return filepath.Join(dir, DatabaseFile), nil
}

func launchEnv(dbPath string) []string {
	return []string{
		DatabasePathEnv + "=" + dbPath,
		PortEnv + "=" + Port,
	}
}

// CloseRequested kills the sidecar, if one was spawned.
//
// The kill is requested once per call and its outcome never blocks the
// window from closing: there is no wait for exit, no retry and no
// stronger signal. The slot keeps its handle, so nothing can be spawned
// into it afterwards. Calling CloseRequested again, concurrently, or with
// no sidecar is harmless.
func (s *Supervisor) CloseRequested() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sidecar kill panicked", "panic", r)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.child == nil {
		return
	}

	s.logger.Info("window closing, killing sidecar", "pid", s.child.PID())
	if err := s.child.Kill(); err != nil {
		s.logger.Warn("sidecar kill failed", "error", err)
	}
}

// Child returns the spawned sidecar handle, or nil if none was spawned.
func (s *Supervisor) Child() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.child
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
