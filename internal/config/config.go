package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/mouse"
	"github.com/dshills/keymux/internal/logging"
	"github.com/dshills/keymux/internal/mux"
)

// Config holds every keymux setting.
type Config struct {
	Mouse      MouseConfig `toml:"mouse" yaml:"mouse"`
	Click      ClickConfig `toml:"click" yaml:"click"`
	Log        LogConfig   `toml:"log" yaml:"log"`
	Exceptions []string    `toml:"exceptions" yaml:"exceptions"`
	Scripts    []string    `toml:"scripts" yaml:"scripts"`
	Watch      bool        `toml:"watch" yaml:"watch"`

	// Path is the file the config was loaded from, if any.
	Path string `toml:"-" yaml:"-"`
}

// MouseConfig selects the mouse events reported.
type MouseConfig struct {
	// Buttons is a mask in mouse.Parse syntax, e.g. "left-click|scroll-up".
	Buttons string `toml:"buttons" yaml:"buttons"`
	Motion  bool   `toml:"motion" yaml:"motion"`
}

// ClickConfig sets click resolution thresholds. Durations use
// time.ParseDuration syntax.
type ClickConfig struct {
	Time       string `toml:"time" yaml:"time"`
	DoubleTime string `toml:"double_time" yaml:"double_time"`
	Distance   int    `toml:"distance" yaml:"distance"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File is where logs go. Empty discards them.
	File string `toml:"file" yaml:"file"`
}

// Default returns the built-in configuration: every button, motion on,
// Enter and Backspace as line-editing exceptions.
func Default() *Config {
	mc := mouse.DefaultConfig()
	return &Config{
		Mouse: MouseConfig{
			Buttons: "all",
			Motion:  true,
		},
		Click: ClickConfig{
			Time:       mc.ClickTime.String(),
			DoubleTime: mc.DoubleClickTime.String(),
			Distance:   mc.DoubleClickDistance,
		},
		Log: LogConfig{
			Level: "info",
		},
		Exceptions: []string{"Enter", "Backspace"},
	}
}

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if _, err := mouse.Parse(c.Mouse.Buttons); err != nil {
		errs = append(errs, &ValidationError{Field: "mouse.buttons", Value: c.Mouse.Buttons, Err: err})
	}
	if _, err := c.MouseConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, &ValidationError{Field: "log.level", Value: c.Log.Level, Err: err})
	}
	if _, err := c.ExceptionUnits(); err != nil {
		errs = append(errs, err)
	}
	for _, s := range c.Scripts {
		if s == "" {
			errs = append(errs, &ValidationError{Field: "scripts", Value: s, Err: errors.New("empty path")})
		}
	}

	return errors.Join(errs...)
}

// ExceptionUnits parses the exception key names.
func (c *Config) ExceptionUnits() ([]input.Unit, error) {
	units := make([]input.Unit, 0, len(c.Exceptions))
	for _, name := range c.Exceptions {
		u, err := input.ParseUnit(name)
		if err != nil {
			return nil, &ValidationError{Field: "exceptions", Value: name, Err: err}
		}
		units = append(units, u)
	}
	return units, nil
}

// MouseConfig returns the click thresholds.
func (c *Config) MouseConfig() (mouse.Config, error) {
	mc := mouse.DefaultConfig()

	if c.Click.Time != "" {
		d, err := parseDuration(c.Click.Time)
		if err != nil {
			return mc, &ValidationError{Field: "click.time", Value: c.Click.Time, Err: err}
		}
		mc.ClickTime = d
	}
	if c.Click.DoubleTime != "" {
		d, err := parseDuration(c.Click.DoubleTime)
		if err != nil {
			return mc, &ValidationError{Field: "click.double_time", Value: c.Click.DoubleTime, Err: err}
		}
		mc.DoubleClickTime = d
	}
	if c.Click.Distance < 0 {
		return mc, &ValidationError{Field: "click.distance", Value: c.Click.Distance, Err: errors.New("must not be negative")}
	}
	mc.DoubleClickDistance = c.Click.Distance
	return mc, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// LogLevel returns the parsed log level, or info when it does not parse.
func (c *Config) LogLevel() logging.Level {
	l, _ := logging.ParseLevel(c.Log.Level)
	return l
}

// Options converts the config into multiplexer options.
func (c *Config) Options() (mux.Options, error) {
	buttons, err := mouse.Parse(c.Mouse.Buttons)
	if err != nil {
		return mux.Options{}, &ValidationError{Field: "mouse.buttons", Value: c.Mouse.Buttons, Err: err}
	}
	exc, err := c.ExceptionUnits()
	if err != nil {
		return mux.Options{}, err
	}
	click, err := c.MouseConfig()
	if err != nil {
		return mux.Options{}, err
	}
	return mux.Options{
		Buttons:    buttons,
		Motion:     c.Mouse.Motion,
		Click:      click,
		Exceptions: exc,
	}, nil
}

// WatchedFiles returns the config file and scripts, for Watcher.
func (c *Config) WatchedFiles() []string {
	files := make([]string, 0, len(c.Scripts)+1)
	if c.Path != "" {
		files = append(files, c.Path)
	}
	return append(files, c.Scripts...)
}
