package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYMUX_"

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// envSetters maps variable names, without the prefix, to the setting
// they override.
var envSetters = map[string]func(c *Config, v string) error{
	"MOUSE_BUTTONS": func(c *Config, v string) error {
		c.Mouse.Buttons = v
		return nil
	},
	"MOUSE_MOTION": func(c *Config, v string) error {
		return setBool(&c.Mouse.Motion, "mouse.motion", v)
	},
	"CLICK_TIME": func(c *Config, v string) error {
		c.Click.Time = v
		return nil
	},
	"CLICK_DOUBLE_TIME": func(c *Config, v string) error {
		c.Click.DoubleTime = v
		return nil
	},
	"CLICK_DISTANCE": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "click.distance", Value: v, Err: err}
		}
		c.Click.Distance = n
		return nil
	},
	"LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = v
		return nil
	},
	"LOG_FILE": func(c *Config, v string) error {
		c.Log.File = v
		return nil
	},
	"EXCEPTIONS": func(c *Config, v string) error {
		c.Exceptions = splitList(v, ",")
		return nil
	},
	"SCRIPTS": func(c *Config, v string) error {
		c.Scripts = splitList(v, string(os.PathListSeparator))
		return nil
	},
	"WATCH": func(c *Config, v string) error {
		return setBool(&c.Watch, "watch", v)
	},
}

// ApplyEnv overrides cfg with KEYMUX_* variables found by lookup.
// Empty values count as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for name, set := range envSetters {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return err
		}
	}
	return nil
}

func setBool(dst *bool, field, v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0", "":
		*dst = false
	default:
		return &ValidationError{Field: field, Value: v, Err: strconv.ErrSyntax}
	}
	return nil
}

func splitList(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
