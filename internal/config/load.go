package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads the file at path over the defaults, applies KEYMUX_*
// environment overrides and validates the result. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := Decode(cfg, path, data); err != nil {
			return nil, err
		}
		cfg.Path = path
		cfg.resolveScripts(filepath.Dir(path))
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses data into cfg. The format is chosen from the extension
// of name. Unknown keys are errors.
func Decode(cfg *Config, name string, data []byte) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return decodeTOML(cfg, name, data)
	case ".yaml", ".yml":
		return decodeYAML(cfg, name, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

func decodeTOML(cfg *Config, name string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		pe := &ParseError{Path: name, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		var se *toml.StrictMissingError
		if errors.As(err, &se) && len(se.Errors) > 0 {
			pe.Line, pe.Column = se.Errors[0].Position()
			pe.Message = "unknown key " + strings.Join(se.Errors[0].Key(), ".")
		}
		return pe
	}
	return nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func decodeYAML(cfg *Config, name string, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		pe := &ParseError{Path: name, Message: err.Error(), Err: err}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return pe
	}
	return nil
}

// resolveScripts expands ~ and makes relative script paths relative to dir.
func (c *Config) resolveScripts(dir string) {
	for i, s := range c.Scripts {
		c.Scripts[i] = resolvePath(s, dir)
	}
	if c.Log.File != "" {
		c.Log.File = resolvePath(c.Log.File, dir)
	}
}

func resolvePath(p, dir string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return p
}
