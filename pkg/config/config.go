// Package config loads fourbar configuration files.
//
// A file is TOML or YAML, chosen by extension (.toml, .yaml, .yml). Every
// section is optional; zero values mean "use the default". Unknown keys are
// rejected so that typos do not silently fall back to defaults.
//
//	[linkage]
//	r1 = 120.0
//	r2 = 30.0
//	r3 = 90.0
//	r4 = 80.0
//
//	[solver]
//	tolerance = 1e-8
//	max_iter = 50
//
//	[sweep]
//	step = 1
//
//	[cache]
//	backend = "redis"
//	addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/fourbar/pkg/errors"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the root of a configuration file.
type Config struct {
	Linkage LinkageConfig `toml:"linkage" yaml:"linkage"`
	Solver  SolverConfig  `toml:"solver" yaml:"solver"`
	Sweep   SweepConfig   `toml:"sweep" yaml:"sweep"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
}

// LinkageConfig holds link lengths. Either all four are set or none.
type LinkageConfig struct {
	R1 float64 `toml:"r1" yaml:"r1" validate:"gte=0"`
	R2 float64 `toml:"r2" yaml:"r2" validate:"gte=0"`
	R3 float64 `toml:"r3" yaml:"r3" validate:"gte=0"`
	R4 float64 `toml:"r4" yaml:"r4" validate:"gte=0"`
}

// SolverConfig holds Newton-Raphson settings.
type SolverConfig struct {
	Tolerance         float64 `toml:"tolerance" yaml:"tolerance" validate:"gte=0,lt=1"`
	MaxIter           int     `toml:"max_iter" yaml:"max_iter" validate:"gte=0,lte=10000"`
	SingularThreshold float64 `toml:"singular_threshold" yaml:"singular_threshold" validate:"gte=0"`
}

// SweepConfig holds sweep settings.
type SweepConfig struct {
	Step    int `toml:"step" yaml:"step" validate:"gte=0,lte=360"`
	Workers int `toml:"workers" yaml:"workers" validate:"gte=0,lte=1024"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string   `toml:"backend" yaml:"backend" validate:"omitempty,oneof=file redis none"`
	Dir     string   `toml:"dir" yaml:"dir"`
	Addr    string   `toml:"addr" yaml:"addr" validate:"required_if=Backend redis"`
	TTL     Duration `toml:"ttl" yaml:"ttl"`
}

// ServerConfig configures `fourbar serve`.
type ServerConfig struct {
	Address string `toml:"address" yaml:"address" validate:"omitempty,hostname_port"`
}

// Duration is a time.Duration written as a string such as "90m".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Lengths returns the configured link lengths and whether they are set.
func (c *Config) Lengths() ([4]float64, bool) {
	l := c.Linkage
	v := [4]float64{l.R1, l.R2, l.R3, l.R4}
	return v, v != [4]float64{}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes data in the given format ("toml" or "yaml") and validates it.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", describe(err))
	}
	if v, ok := c.Lengths(); ok {
		if err := errors.ValidateLengths(v[:]...); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "linkage: all four lengths must be set and positive")
		}
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

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// describe renders the first validation failure as "section.key: rule".
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", ns, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", ns, fe.Tag())
}
