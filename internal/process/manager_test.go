package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

// outputs returns the "output" values of every process output entry.
func (l *recordingLogger) outputs(stream string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	for _, e := range l.entries {
		if e.msg != "process output" {
			continue
		}
		fields := map[string]any{}
		for i := 0; i+1 < len(e.args); i += 2 {
			if k, ok := e.args[i].(string); ok {
				fields[k] = e.args[i+1]
			}
		}
		if fields["stream"] == stream {
			out = append(out, fields["output"].(string))
		}
	}
	return out
}

func skipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func waitDone(t *testing.T, m *Manager) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit within 5s")
	}
}

func TestNewManager(t *testing.T) {
	cfg := Config{
		Name:    "test-proc",
		Binary:  "/usr/bin/test",
		Args:    []string{"--flag"},
		WorkDir: "/tmp",
	}

	m := NewManager(cfg)

	if m.config.Name != "test-proc" {
		t.Errorf("Name = %q, want %q", m.config.Name, "test-proc")
	}
	if m.config.Binary != "/usr/bin/test" {
		t.Errorf("Binary = %q, want %q", m.config.Binary, "/usr/bin/test")
	}
	if m.ID() == "" {
		t.Error("ID() is empty, want a launch ID")
	}
}

func TestNewManager_UniqueIDs(t *testing.T) {
	a := NewManager(Config{Name: "a", Binary: "/bin/true"})
	b := NewManager(Config{Name: "b", Binary: "/bin/true"})

	if a.ID() == b.ID() {
		t.Errorf("two managers share ID %q", a.ID())
	}
}

func TestManager_InitialState(t *testing.T) {
	m := NewManager(Config{
		Name:   "test",
		Binary: "/bin/true",
	})

	if m.Status() != StatusUnspawned {
		t.Errorf("initial Status() = %q, want %q", m.Status(), StatusUnspawned)
	}
	if m.PID() != 0 {
		t.Errorf("PID() = %d, want 0", m.PID())
	}
	if m.ExitErr() != nil {
		t.Errorf("ExitErr() = %v, want nil", m.ExitErr())
	}

	select {
	case <-m.Done():
		t.Error("Done() closed before spawn")
	default:
	}
}

func TestManager_Stats(t *testing.T) {
	m := NewManager(Config{
		Name:   "stats-test",
		Binary: "/bin/echo",
	})

	stats := m.Stats()
	if stats.Name != "stats-test" {
		t.Errorf("Stats.Name = %q, want %q", stats.Name, "stats-test")
	}
	if stats.ID != m.ID() {
		t.Errorf("Stats.ID = %q, want %q", stats.ID, m.ID())
	}
	if stats.Status != StatusUnspawned {
		t.Errorf("Stats.Status = %q, want %q", stats.Status, StatusUnspawned)
	}
	if stats.PID != 0 {
		t.Errorf("Stats.PID = %d, want 0", stats.PID)
	}
	if stats.Exited {
		t.Error("Stats.Exited = true, want false")
	}
}

func TestManager_KillWhenUnspawned(t *testing.T) {
	m := NewManager(Config{
		Name:   "test",
		Binary: "/bin/true",
	})

	if err := m.Kill(); err != nil {
		t.Errorf("Kill() on unspawned process error = %v, want nil", err)
	}
	if m.Status() != StatusUnspawned {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusUnspawned)
	}
}

func TestManager_StartMissingBinary(t *testing.T) {
	m := NewManager(Config{
		Name:   "missing",
		Binary: filepath.Join(t.TempDir(), "does-not-exist"),
	})

	err := m.Start(context.Background())
	if err == nil {
		t.Fatal("Start() expected error for missing binary, got nil")
	}
	if !strings.Contains(err.Error(), "starting missing") {
		t.Errorf("Start() error = %v, want it to name the process", err)
	}
	if m.Status() != StatusUnspawned {
		t.Errorf("Status() after failed Start = %q, want %q", m.Status(), StatusUnspawned)
	}
}

func TestManager_StartCancelledContext(t *testing.T) {
	m := NewManager(Config{Name: "test", Binary: "/bin/true"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
	if m.Status() != StatusUnspawned {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusUnspawned)
	}
}

func TestManager_StartAndKill(t *testing.T) {
	skipIfNoShell(t)

	m := NewManager(Config{
		Name:   "test-sleep",
		Binary: "/bin/sleep",
		Args:   []string{"60"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if m.Status() != StatusSpawned {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusSpawned)
	}
	if m.PID() == 0 {
		t.Error("PID() = 0 after Start()")
	}

	if err := m.Kill(); err != nil {
		t.Fatalf("Kill() error: %v", err)
	}
	if m.Status() != StatusTerminationRequested {
		t.Errorf("Status() after Kill = %q, want %q", m.Status(), StatusTerminationRequested)
	}

	waitDone(t, m)

	if m.ExitErr() == nil {
		t.Error("ExitErr() = nil, want a signal exit error")
	}
	if !m.Stats().Exited {
		t.Error("Stats.Exited = false after Done")
	}
}

func TestManager_StartTwice(t *testing.T) {
	skipIfNoShell(t)

	m := NewManager(Config{
		Name:   "test",
		Binary: "/bin/sleep",
		Args:   []string{"10"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error: %v", err)
	}
	defer m.Kill() //nolint:errcheck // Test cleanup

	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestManager_NoRespawnAfterKill(t *testing.T) {
	skipIfNoShell(t)

	m := NewManager(Config{
		Name:   "test",
		Binary: "/bin/sleep",
		Args:   []string{"10"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	_ = m.Kill()
	waitDone(t, m)

	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start() after Kill error = %v, want ErrAlreadyStarted", err)
	}
	if m.Status() != StatusTerminationRequested {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusTerminationRequested)
	}
}

func TestManager_KillTwice(t *testing.T) {
	skipIfNoShell(t)

	m := NewManager(Config{
		Name:   "test",
		Binary: "/bin/sleep",
		Args:   []string{"10"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if err := m.Kill(); err != nil {
		t.Fatalf("first Kill() error: %v", err)
	}
	waitDone(t, m)

	if err := m.Kill(); err != nil {
		t.Errorf("second Kill() error = %v, want nil", err)
	}
}

func TestManager_KillAfterSelfExit(t *testing.T) {
	skipIfNoShell(t)

	m := NewManager(Config{
		Name:   "short",
		Binary: "/bin/sh",
		Args:   []string{"-c", "exit 0"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, m)

	// The group is gone; the kill is still accepted.
	if err := m.Kill(); err != nil {
		t.Errorf("Kill() after exit error = %v, want nil", err)
	}
	if m.Status() != StatusTerminationRequested {
		t.Errorf("Status() = %q, want %q", m.Status(), StatusTerminationRequested)
	}
}

func TestManager_KillReachesProcessGroup(t *testing.T) {
	skipIfNoShell(t)

	pidFile := filepath.Join(t.TempDir(), "grandchild.pid")
	m := NewManager(Config{
		Name:   "parent",
		Binary: "/bin/sh",
		Args:   []string{"-c", "sleep 60 & echo $! > " + pidFile + "; wait"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var data []byte
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var err error
		data, err = os.ReadFile(pidFile)
		if err == nil && len(strings.TrimSpace(string(data))) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(data) == 0 {
		t.Fatal("grandchild pid file never written")
	}

	if err := m.Kill(); err != nil {
		t.Fatalf("Kill() error: %v", err)
	}
	waitDone(t, m)

	grandchild := "/proc/" + strings.TrimSpace(string(data))
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("no /proc to inspect grandchild")
	}

	// The grandchild is reparented and reaped by init; give it a moment.
	deadline = time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(grandchild); os.IsNotExist(err) {
			return
		}
		status, _ := os.ReadFile(grandchild + "/status")
		if strings.Contains(string(status), "State:\tZ") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("grandchild survived the group kill")
}

func TestManager_EnvAndWorkDir(t *testing.T) {
	skipIfNoShell(t)

	workDir := t.TempDir()
	outFile := filepath.Join(t.TempDir(), "out.txt")

	m := NewManager(Config{
		Name:    "env",
		Binary:  "/bin/sh",
		Args:    []string{"-c", `printf '%s|%s|%s' "$PORT" "$DATABASE_PATH" "$(pwd -P)" > ` + outFile},
		Env:     []string{"PORT=3001", "DATABASE_PATH=/data/dev.sqlite3"},
		WorkDir: workDir,
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, m)

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	resolvedWorkDir, err := filepath.EvalSymlinks(workDir)
	if err != nil {
		t.Fatalf("EvalSymlinks() error: %v", err)
	}

	want := "3001|/data/dev.sqlite3|" + resolvedWorkDir
	if string(data) != want {
		t.Errorf("child saw %q, want %q", string(data), want)
	}
}

func TestManager_InheritsParentEnv(t *testing.T) {
	skipIfNoShell(t)

	t.Setenv("TASKRIOT_TEST_PARENT", "inherited")
	outFile := filepath.Join(t.TempDir(), "out.txt")

	m := NewManager(Config{
		Name:   "env",
		Binary: "/bin/sh",
		Args:   []string{"-c", `printf '%s' "$TASKRIOT_TEST_PARENT" > ` + outFile},
		Env:    []string{"PORT=3001"},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, m)

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "inherited" {
		t.Errorf("child saw %q, want %q", string(data), "inherited")
	}
}

func TestManager_CapturesOutput(t *testing.T) {
	skipIfNoShell(t)

	logger := &recordingLogger{}
	m := NewManager(Config{
		Name:   "chatty",
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo one; echo two; echo oops >&2; printf tail"},
	})
	m.SetLogger(logger)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, m)

	stdout := logger.outputs("stdout")
	if strings.Join(stdout, ",") != "one,two,tail" {
		t.Errorf("stdout lines = %q, want [one two tail]", stdout)
	}

	stderr := logger.outputs("stderr")
	if strings.Join(stderr, ",") != "oops" {
		t.Errorf("stderr lines = %q, want [oops]", stderr)
	}
}
