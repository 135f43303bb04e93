// Package app wires the keymux components together: configuration,
// logging, the multiplexer, scripted listeners and live reload.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/keymux/internal/backend"
	"github.com/dshills/keymux/internal/config"
	"github.com/dshills/keymux/internal/event"
	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/logging"
	"github.com/dshills/keymux/internal/mux"
	"github.com/dshills/keymux/internal/script"
)

// QuitKey stops the application.
const QuitKey = key.Ctrl | 'Q'

// Options are command-line settings. Non-empty values override the
// config file.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	Scripts    []string
	NoMotion   bool

	// LogOutput replaces LogFile, for tests.
	LogOutput io.Writer
}

// Application runs the multiplexer with configured listeners.
type Application struct {
	mu sync.Mutex

	opts    Options
	cfg     *config.Config
	logger  *logging.Logger
	logFile *os.File

	registry *event.Registry
	mux      *mux.Multiplexer
	scripts  *script.Engine
	watcher  *config.Watcher

	line    LineBuffer
	lines   []string
	onLine  func(string)
	running atomic.Bool
}

// New loads configuration and builds every component around b.
func New(opts Options, b backend.Backend) (*Application, error) {
	if b == nil {
		return nil, ErrNoBackend
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if err := applyOptions(cfg, opts); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	app := &Application{
		opts:     opts,
		cfg:      cfg,
		registry: event.NewRegistry(),
	}
	if err := app.openLog(); err != nil {
		return nil, &InitError{Component: "log", Err: err}
	}

	app.mux = mux.New(b, app.registry, mux.WithLogger(app.logger))
	app.registry.OnKey(QuitKey, func(input.Unit) error {
		app.logger.Info("quit key pressed")
		app.mux.Stop()
		return nil
	})

	app.scripts = script.New(app.registry,
		script.WithStop(app.mux.Stop),
		script.WithLogger(app.logger),
	)
	if len(cfg.Scripts) > 0 {
		if err := app.scripts.Load(cfg.Scripts...); err != nil {
			app.close()
			return nil, &InitError{Component: "scripts", Err: err}
		}
	}
	return app, nil
}

// applyOptions lays command-line settings over cfg.
func applyOptions(cfg *config.Config, opts Options) error {
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if len(opts.Scripts) > 0 {
		cfg.Scripts = append(cfg.Scripts, opts.Scripts...)
	}
	if opts.NoMotion {
		cfg.Mouse.Motion = false
	}
	return cfg.Validate()
}

// openLog creates the logger. Without a log file output is discarded,
// since the terminal is in raw mode.
func (app *Application) openLog() error {
	out := app.opts.LogOutput
	if out == nil && app.cfg.Log.File != "" {
		f, err := os.OpenFile(app.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logFile = f
		out = f
	}
	if out == nil {
		app.logger = logging.Nop()
		return nil
	}
	app.logger = logging.New(logging.Config{
		Level:  app.cfg.LogLevel(),
		Output: out,
		Prefix: "keymux",
	})
	return nil
}

// OnLine sets a callback for every completed line.
func (app *Application) OnLine(fn func(string)) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.onLine = fn
}

// Lines returns the lines completed so far.
func (app *Application) Lines() []string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return append([]string(nil), app.lines...)
}

// Registry returns the listener registry, for binding Go listeners.
func (app *Application) Registry() *event.Registry {
	return app.registry
}

// Mux returns the multiplexer.
func (app *Application) Mux() *mux.Multiplexer {
	return app.mux
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Run starts the multiplexer and assembles lines from its stream until
// the quit key, Stop, cancellation or a failure ends it.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	opts, err := app.Config().Options()
	if err != nil {
		return err
	}
	stream, err := app.mux.Start(opts)
	if err != nil {
		return &InitError{Component: "terminal", Err: err}
	}
	app.logger.Debug("click thresholds %v/%v", opts.Click.ClickTime, opts.Click.DoubleClickTime)

	release := context.AfterFunc(ctx, app.mux.Stop)
	defer release()

	if app.Config().Watch {
		if err := app.startWatcher(); err != nil {
			app.logger.Warn("live reload disabled: %v", err)
		}
	}

	for u := range stream.All() {
		if line, done := app.line.Feed(u); done {
			app.finishLine(line)
		}
	}

	if err := stream.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

func (app *Application) finishLine(line string) {
	app.logger.Info("line: %q", line)

	app.mu.Lock()
	app.lines = append(app.lines, line)
	fn := app.onLine
	app.mu.Unlock()

	if fn != nil {
		fn(line)
	}
}

// Stop ends Run.
func (app *Application) Stop() {
	app.mux.Stop()
}

// Shutdown stops everything and restores the terminal.
func (app *Application) Shutdown() {
	app.mux.Shutdown()
	app.logger.Info("%s", app.stats())
	app.close()
}

func (app *Application) close() {
	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()

	if w != nil {
		_ = w.Close()
	}
	_ = app.scripts.Close()
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

func (app *Application) stats() string {
	s := app.mux.Metrics().Snapshot()
	return fmt.Sprintf("units=%d key=%d mouse=%d char=%d yields=%d failures=%d avg=%dns",
		s.Units, s.KeyEvents, s.MouseEvents, s.CharEvents, s.Yields, s.ListenerFailures, s.AvgDispatchNs)
}

// Reload re-reads the config file and scripts and applies them to the
// running multiplexer.
func (app *Application) Reload() error {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := applyOptions(cfg, app.opts); err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	app.mu.Lock()
	app.cfg = cfg
	app.mu.Unlock()
	app.logger.SetLevel(cfg.LogLevel())

	var errs []error
	if app.mux.Running() {
		if _, err := app.mux.Start(opts); err != nil {
			errs = append(errs, err)
		}
	}
	if err := app.scripts.Reload(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (app *Application) startWatcher() error {
	files := app.Config().WatchedFiles()
	if len(files) == 0 {
		return nil
	}
	w, err := config.NewWatcher(files, config.WithWatchLogger(app.logger))
	if err != nil {
		return err
	}

	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()

	go func() {
		for change := range w.Changes() {
			app.logger.Info("reloading after change to %v", change.Paths)
			if err := app.Reload(); err != nil {
				app.logger.Error("reload: %v", err)
			}
		}
	}()
	return nil
}
