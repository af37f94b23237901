// Package config implements dscript engine configuration loading.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"

	"github.com/thomasrohde/dscript/pkg/evaluator"
)

// File names searched by Load.
const (
	ProjectFile = ".dscript.toml"
	UserDir     = ".dscript"
	UserFile    = "config.toml"
)

// Defaults for values a config file omits.
const (
	DefaultMode           = "strict"
	DefaultParseCacheSize = 128
)

// Config holds engine settings. TOML keys match the field names.
type Config struct {
	Mode           string
	MaxCallDepth   int
	ErrorCallback  string
	ParseCacheSize int
	Shapes         []string
	IncludeRoots   []string
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Defaults returns the configuration used when no file is found.
func Defaults() *Config {
	return &Config{
		Mode:           DefaultMode,
		MaxCallDepth:   evaluator.DefaultMaxCallDepth,
		ParseCacheSize: DefaultParseCacheSize,
	}
}

// Load reads configuration from the project and user config files.
// Precedence: project (.dscript.toml) → user (~/.dscript/config.toml) → defaults.
// The returned path is the file that was used, or "" for defaults. A file
// that exists but fails to parse is an error.
func Load(projectDir string) (*Config, string, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserDir, UserFile))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	return Defaults(), "", nil
}

// LoadFile reads one TOML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Defaults()
	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := evaluator.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("MaxCallDepth must be positive, got %d", c.MaxCallDepth)
	}
	if c.ParseCacheSize < 0 {
		return fmt.Errorf("ParseCacheSize must not be negative, got %d", c.ParseCacheSize)
	}
	return nil
}

// EvalMode returns the parsed Mode. Validate must have succeeded.
func (c *Config) EvalMode() evaluator.Mode {
	m, _ := evaluator.ParseMode(c.Mode)
	return m
}

// ResolvePaths makes relative Shapes and IncludeRoots entries relative to
// the directory of the config file.
func (c *Config) ResolvePaths(configPath string) {
	if configPath == "" {
		return
	}
	dir := filepath.Dir(configPath)
	abs := func(paths []string) {
		for i, p := range paths {
			if !filepath.IsAbs(p) {
				paths[i] = filepath.Join(dir, p)
			}
		}
	}
	abs(c.Shapes)
	abs(c.IncludeRoots)
}
