package host

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
)

// Config describes the application to the host platform.
type Config struct {
	// Identifier is the reverse-DNS application identifier
	// (e.g. "com.taskriot.desktop"). It names the app data directory.
	Identifier string

	// ProductName names the packaged resource directory on Linux.
	ProductName string

	// ResourceDir overrides the packaged resource directory.
	ResourceDir string

	// DataDir overrides the application data directory.
	DataDir string
}

// WindowEventKind identifies a window lifecycle event.
type WindowEventKind string

const (
	// CloseRequested fires once when the main window is about to close.
	CloseRequested WindowEventKind = "close_requested"
)

// WindowEvent is delivered to handlers registered with OnWindowEvent.
type WindowEvent struct {
	Kind WindowEventKind
}

// Logger defines the logging interface for the host.
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

// Host stands in for the desktop application framework. It answers path
// questions (where are bundled resources, where does app data live, where
// is the executable) and drives the two lifecycle callbacks the shell
// relies on: setup before the window is shown, and close-requested when
// the window goes away.
//
// Window creation and rendering are not handled here; the window is
// considered open from the end of setup until the run context is done or
// CloseWindow is called.
type Host struct {
	config Config
	logger Logger

	// Platform hooks, replaced in tests.
	goos       string
	getenv     func(string) string
	executable func() (string, error)
	homeDir    func() (string, error)

	mu            sync.Mutex
	setupHooks    []func(ctx context.Context) error
	windowHandler []func(WindowEvent)
	running       bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

// New creates a Host for the given application.
func New(cfg Config) *Host {
	return &Host{
		config:     cfg,
		logger:     noopLogger{},
		goos:       defaultGOOS(),
		getenv:     os.Getenv,
		executable: os.Executable,
		homeDir:    defaultHomeDir,
		closeCh:    make(chan struct{}),
	}
}

// SetLogger sets the logger for the host.
func (h *Host) SetLogger(logger Logger) {
	h.logger = logger
}

// OnSetup registers a setup callback. Callbacks run in registration order
// on the goroutine calling Run, before the window is shown.
func (h *Host) OnSetup(fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setupHooks = append(h.setupHooks, fn)
}

// OnWindowEvent registers a window event handler.
func (h *Host) OnWindowEvent(fn func(WindowEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windowHandler = append(h.windowHandler, fn)
}

// Run executes the application lifecycle:
//  1. Every setup callback, in order. The first error aborts Run and the
//     window is never shown.
//  2. The window is shown and Run blocks until ctx is done or CloseWindow
//     is called.
//  3. A CloseRequested event is delivered to every window handler.
//
// Run may only be called once.
//
// Returns:
//   - error: ErrAlreadyRunning, or the first setup error
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	h.running = true
	hooks := slices.Clone(h.setupHooks)
	h.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	h.logger.Info("window shown", "app", h.config.Identifier)

	select {
	case <-ctx.Done():
		h.logger.Info("shutdown signal received, closing window")
	case <-h.closeCh:
		h.logger.Info("window close requested")
	}

	h.emit(WindowEvent{Kind: CloseRequested})

	h.logger.Info("window closed", "app", h.config.Identifier)
	return nil
}

// CloseWindow asks the running window to close. It is safe to call from
// any goroutine, any number of times, before or during Run.
func (h *Host) CloseWindow() {
	h.closeOnce.Do(func() {
		close(h.closeCh)
	})
}

func (h *Host) emit(ev WindowEvent) {
	h.mu.Lock()
	handlers := slices.Clone(h.windowHandler)
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
