// Package config loads the optional lox.yaml project file.
//
// Example:
//
//	requires: ">= 0.3.0"
//	continue_on_error: false
//	max_call_depth: 512
//	color: auto
//	prompt: "> "
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "lox.yaml"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings read from lox.yaml. Zero values mean "use the
// default"; command-line flags override whatever is set here.
type Config struct {
	Path            string `yaml:"-"`
	Requires        string `yaml:"requires"`
	ContinueOnError bool   `yaml:"continue_on_error"`
	MaxCallDepth    int    `yaml:"max_call_depth"`
	Color           string `yaml:"color"`
	Prompt          string `yaml:"prompt"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{Color: ColorAuto, Prompt: "> "}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config: %s is invalid:", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path. With an empty path it tries DefaultFile and falls back
// to Default when that file does not exist; an explicitly named file must
// exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse decodes a config document from r. Unknown keys are rejected.
func Parse(name string, r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", name, err)
	}
	cfg.Path = name
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var issues []string
	if c.Requires != "" {
		if _, err := semver.NewConstraint(c.Requires); err != nil {
			issues = append(issues, fmt.Sprintf("requires: %v", err))
		}
	}
	if c.MaxCallDepth < 0 {
		issues = append(issues, "max_call_depth: must not be negative")
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		issues = append(issues, fmt.Sprintf("color: %q is not one of auto, always, never", c.Color))
	}
	if len(issues) > 0 {
		return &ValidationError{Path: c.Path, Issues: issues}
	}
	return nil
}

// CheckVersion verifies that version satisfies the requires constraint.
// Development builds whose version does not parse are always accepted.
func (c *Config) CheckVersion(version string) error {
	if c.Requires == "" {
		return nil
	}
	con, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("config: requires: %w", err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil
	}
	if !con.Check(v) {
		return fmt.Errorf("config: %s requires lox %s, running %s", c.Path, c.Requires, version)
	}
	return nil
}
