package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a managed process.
//
// A manager moves strictly forward:
//
//	unspawned -> spawned -> termination_requested
//
// There is no way back to unspawned, so a manager spawns at most once.
type Status string

const (
	StatusUnspawned            Status = "unspawned"
	StatusSpawned              Status = "spawned"
	StatusTerminationRequested Status = "termination_requested"
)

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the executable. A name without a path separator is looked
	// up in PATH at Start.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format),
	// appended to the parent process environment.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// InheritOutput connects the child's stdout/stderr to the parent's.
	// When false, each output line is logged at debug level instead.
	InheritOutput bool
}

// Logger defines the logging interface for the process manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager owns a single child process.
//
// Restart, health checking and graceful-stop escalation are deliberately
// absent: the child is spawned once and killed once.
type Manager struct {
	config Config
	logger Logger
	id     string

	mu        sync.Mutex
	cmd       *exec.Cmd
	status    Status
	startTime time.Time
	exitErr   error

	// done is closed once the child has been reaped.
	done chan struct{}
}

// NewManager creates a new process manager with the given configuration.
// Each manager gets a unique ID that tags its log lines.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
		logger: noopLogger{},
		id:     uuid.New().String(),
		status: StatusUnspawned,
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Start spawns the subprocess.
//
// Returns ErrAlreadyStarted if the manager has spawned before, ctx.Err()
// if ctx is already done, or a wrapped error if the binary cannot be
// executed. A failed Start leaves the manager unspawned.
func (m *Manager) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusUnspawned {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, m.config.Name, m.status)
	}

	m.logger.Info("starting process",
		"name", m.config.Name,
		"id", m.id,
		"binary", m.config.Binary,
		"args", m.config.Args,
		"dir", m.config.WorkDir,
	)

	cmd := exec.Command(m.config.Binary, m.config.Args...) //nolint:gosec // Binary comes from resource resolution, not user input
	cmd.SysProcAttr = sysProcAttr()
	cmd.Dir = m.config.WorkDir

	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}

	var stdout, stderr *lineLogger
	if m.config.InheritOutput {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		stdout = newLineLogger(m.logger, m.config.Name, "stdout")
		stderr = newLineLogger(m.logger, m.config.Name, "stderr")
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	m.cmd = cmd
	m.status = StatusSpawned
	m.startTime = time.Now()

	go m.reap(cmd, stdout, stderr)

	m.logger.Info("process started",
		"name", m.config.Name,
		"id", m.id,
		"pid", cmd.Process.Pid,
	)

	return nil
}

// reap waits for the child so it does not linger as a zombie. It records
// the exit but never restarts the process.
func (m *Manager) reap(cmd *exec.Cmd, stdout, stderr *lineLogger) {
	err := cmd.Wait()

	if stdout != nil {
		stdout.Flush()
	}
	if stderr != nil {
		stderr.Flush()
	}

	m.mu.Lock()
	m.exitErr = err
	status := m.status
	m.mu.Unlock()

	if status == StatusTerminationRequested {
		m.logger.Info("process exited after termination request",
			"name", m.config.Name,
			"id", m.id,
		)
	} else {
		m.logger.Warn("process exited on its own",
			"name", m.config.Name,
			"id", m.id,
			"error", err,
		)
	}

	close(m.done)
}

// Kill requests termination of the child with a single forceful signal.
//
// On unix the whole process group is signalled, so helpers spawned by the
// runtime go down with it. Kill does not wait for the child to exit and
// never escalates. Calling Kill on an unspawned manager, or a second time,
// is a no-op.
//
// Returns:
//   - error: The signal delivery error, if any. The status moves to
//     termination_requested either way.
func (m *Manager) Kill() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusSpawned {
		return nil
	}
	m.status = StatusTerminationRequested

	pid := m.cmd.Process.Pid
	m.logger.Info("killing process", "name", m.config.Name, "id", m.id, "pid", pid)

	if err := killProcess(m.cmd.Process); err != nil {
		return fmt.Errorf("killing %s: %w", m.config.Name, err)
	}
	return nil
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// ID returns the manager's unique launch ID.
func (m *Manager) ID() string {
	return m.id
}

// PID returns the process ID, or 0 if never spawned.
func (m *Manager) PID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd != nil && m.cmd.Process != nil {
		return m.cmd.Process.Pid
	}
	return 0
}

// Done returns a channel closed once a spawned child has exited and been
// reaped. It is never closed for a manager that did not spawn.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// ExitErr returns the error from waiting on the child, valid after Done
// is closed. A child that was killed reports a signal error here.
func (m *Manager) ExitErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitErr
}

// Stats returns statistics about the managed process.
type Stats struct {
	Name    string        `json:"name"`
	ID      string        `json:"id"`
	Status  Status        `json:"status"`
	PID     int           `json:"pid,omitempty"`
	Uptime  time.Duration `json:"uptime,omitempty"`
	Exited  bool          `json:"exited"`
	ExitErr string        `json:"exit_error,omitempty"`
}

// Stats returns current statistics for the process.
func (m *Manager) Stats() Stats {
	exited := false
	select {
	case <-m.done:
		exited = true
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Name:   m.config.Name,
		ID:     m.id,
		Status: m.status,
		Exited: exited,
	}

	if m.cmd != nil && m.cmd.Process != nil {
		stats.PID = m.cmd.Process.Pid
	}
	if m.status == StatusSpawned && !exited {
		stats.Uptime = time.Since(m.startTime)
	}
	if m.exitErr != nil {
		stats.ExitErr = m.exitErr.Error()
	}

	return stats
}
