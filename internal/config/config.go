// Package config loads nodegraph configuration from TOML or YAML files and
// watches files for changes.
//
// Unset keys keep their defaults:
//
//	[layout]
//	node_width = 200
//	palette = ["#4e79a7", "#f28e2b"]
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/layout/params"
)

// Config is the full nodegraph configuration.
type Config struct {
	Layout params.Params `toml:"layout" yaml:"layout"`
	Cache  CacheConfig   `toml:"cache" yaml:"cache"`
	Server ServerConfig  `toml:"server" yaml:"server"`

	// AssertAssigned fails a layout when a data node ends up outside every
	// block.
	AssertAssigned bool `toml:"assert_assigned" yaml:"assert_assigned"`
}

// CacheConfig selects the layout cache backend. RedisURL wins over Dir.
type CacheConfig struct {
	Disabled bool   `toml:"disabled" yaml:"disabled"`
	Dir      string `toml:"dir" yaml:"dir"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// ServerConfig configures `nodegraph serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
	MaxBodyBytes   int64    `toml:"max_body_bytes" yaml:"max_body_bytes"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: params.Defaults(),
		Cache:  CacheConfig{Prefix: "nodegraph:"},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: Duration(30 * time.Second),
			MaxBodyBytes:   8 << 20,
		},
	}
}

// Load reads path over the defaults and validates the result. The format
// follows the extension: .toml, .yaml, or .yml. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	if err := Decode(data, formatOf(path), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode parses data in the given format ("toml" or "yaml") into cfg.
// Keys absent from data leave cfg unchanged; unknown keys are an error.
func Decode(data []byte, format string, cfg *Config) error {
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q (use .toml, .yaml or .yml)", format)
	}
	return nil
}

// Validate checks layout geometry and connection settings.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Cache.RedisURL != "" {
		if err := errors.ValidateRedisURL(c.Cache.RedisURL); err != nil {
			return err
		}
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	if c.Server.RequestTimeout < 0 || c.Server.MaxBodyBytes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server limits must not be negative")
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	}
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
