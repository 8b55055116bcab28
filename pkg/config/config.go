// Package config loads the vcard tool settings from a YAML or TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/value"
)

// Output formats accepted by output.format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the full set of tool settings.
type Config struct {
	LogLevel   string            `yaml:"log_level" toml:"log_level"`
	Output     OutputConfig      `yaml:"output" toml:"output"`
	Watch      WatchConfig       `yaml:"watch" toml:"watch"`
	Extensions []ExtensionConfig `yaml:"extensions" toml:"extensions"`
}

// OutputConfig controls how parsed cards are printed.
type OutputConfig struct {
	Format string `yaml:"format" toml:"format"`
}

// WatchConfig controls directory watching.
type WatchConfig struct {
	// Extensions lists the file suffixes to validate, e.g. ".vcf".
	Extensions []string `yaml:"extensions" toml:"extensions"`
	// Debounce is a time.ParseDuration string.
	Debounce string `yaml:"debounce" toml:"debounce"`
}

// ExtensionConfig declares one extension property for the catalog.
type ExtensionConfig struct {
	Name        string   `yaml:"name" toml:"name"`
	Cardinality string   `yaml:"cardinality" toml:"cardinality"`
	Value       string   `yaml:"value" toml:"value"`
	Allowed     []string `yaml:"allowed" toml:"allowed"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Output:   OutputConfig{Format: FormatJSON},
		Watch: WatchConfig{
			Extensions: []string{".vcf", ".vcard"},
			Debounce:   "250ms",
		},
	}
}

// Load reads path over the defaults. Files ending in .toml are decoded as
// TOML, everything else as YAML. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("output.format: unsupported format %q", c.Output.Format)
	}

	for i, extension := range c.Watch.Extensions {
		if !strings.HasPrefix(extension, ".") || len(extension) < 2 {
			return fmt.Errorf("watch.extensions[%d]: %q must start with '.'", i, extension)
		}
	}
	if _, err := c.DebounceInterval(); err != nil {
		return err
	}

	if _, err := c.Catalog(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured zerolog level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// DebounceInterval parses watch.debounce. An empty value disables
// debouncing.
func (c *Config) DebounceInterval() (time.Duration, error) {
	if strings.TrimSpace(c.Watch.Debounce) == "" {
		return 0, nil
	}
	interval, err := time.ParseDuration(strings.TrimSpace(c.Watch.Debounce))
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if interval < 0 {
		return 0, fmt.Errorf("watch.debounce: negative interval %s", interval)
	}
	return interval, nil
}

// Catalog builds the property catalog with the configured extensions.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	opts := make([]catalog.Option, 0, len(c.Extensions))
	for i, extension := range c.Extensions {
		entry, err := extension.entry()
		if err != nil {
			return nil, fmt.Errorf("extensions[%d]: %w", i, err)
		}
		opts = append(opts, catalog.WithExtension(entry))
	}
	return catalog.New(opts...)
}

func (e ExtensionConfig) entry() (catalog.Entry, error) {
	if e.Name == "" {
		return catalog.Entry{}, fmt.Errorf("name is required")
	}
	cardinality, err := catalog.ParseCardinality(e.Cardinality)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("extension %s: %w", e.Name, err)
	}

	entry := catalog.Entry{Type: catalog.PropertyType(e.Name), Cardinality: cardinality}
	if e.Value != "" {
		kind, ok := value.KindFromName(e.Value)
		if !ok {
			return catalog.Entry{}, fmt.Errorf("extension %s: unknown value type %q", e.Name, e.Value)
		}
		entry.Default = kind
	}
	for _, allowedName := range e.Allowed {
		kind, ok := value.KindFromName(allowedName)
		if !ok {
			return catalog.Entry{}, fmt.Errorf("extension %s: unknown allowed type %q", e.Name, allowedName)
		}
		entry.Allowed = append(entry.Allowed, kind)
	}
	return entry, nil
}
