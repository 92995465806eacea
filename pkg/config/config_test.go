package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/fourbar/pkg/errors"
)

const tomlConfig = `
[linkage]
r1 = 120.0
r2 = 30.0
r3 = 90.0
r4 = 80.0

[solver]
tolerance = 1e-9
max_iter = 100

[sweep]
step = 5
workers = 4

[cache]
backend = "redis"
addr = "localhost:6379"
ttl = "24h"

[server]
address = "localhost:8080"
`

const yamlConfig = `
linkage:
  r1: 120
  r2: 30
  r3: 90
  r4: 80
solver:
  tolerance: 1.0e-9
  max_iter: 100
sweep:
  step: 5
  workers: 4
cache:
  backend: redis
  addr: localhost:6379
  ttl: 24h
server:
  address: localhost:8080
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"toml", "fourbar.toml", tomlConfig},
		{"yaml", "fourbar.yaml", yamlConfig},
		{"yml", "fourbar.yml", yamlConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			lengths, ok := cfg.Lengths()
			assert.True(t, ok)
			assert.Equal(t, [4]float64{120, 30, 90, 80}, lengths)
			assert.Equal(t, 1e-9, cfg.Solver.Tolerance)
			assert.Equal(t, 100, cfg.Solver.MaxIter)
			assert.Zero(t, cfg.Solver.SingularThreshold)
			assert.Equal(t, 5, cfg.Sweep.Step)
			assert.Equal(t, 4, cfg.Sweep.Workers)
			assert.Equal(t, BackendRedis, cfg.Cache.Backend)
			assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
			assert.Equal(t, 24*time.Hour, cfg.Cache.TTL.Duration)
			assert.Equal(t, "localhost:8080", cfg.Server.Address)
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	for _, name := range []string{"empty.toml", "empty.yaml"} {
		cfg, err := Load(writeFile(t, name, ""))
		require.NoError(t, err, name)
		_, ok := cfg.Lengths()
		assert.False(t, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"unknown toml key", "c.toml", "[solver]\ntolerence = 1e-8\n"},
		{"unknown yaml key", "c.yaml", "solver:\n  tolerence: 1e-8\n"},
		{"bad toml", "c.toml", "[linkage\n"},
		{"negative length", "c.toml", "[linkage]\nr1 = -1.0\nr2 = 1.0\nr3 = 1.0\nr4 = 1.0\n"},
		{"partial linkage", "c.toml", "[linkage]\nr1 = 1.0\nr2 = 2.0\n"},
		{"step too large", "c.toml", "[sweep]\nstep = 400\n"},
		{"negative max iter", "c.yaml", "solver:\n  max_iter: -1\n"},
		{"tolerance too large", "c.toml", "[solver]\ntolerance = 2.0\n"},
		{"unknown backend", "c.toml", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "c.toml", "[cache]\nbackend = \"redis\"\n"},
		{"bad ttl", "c.toml", "[cache]\nttl = \"soon\"\n"},
		{"negative ttl", "c.yaml", "cache:\n  ttl: -1h\n"},
		{"bad server address", "c.toml", "[server]\naddress = \"not an address\"\n"},
		{"unsupported extension", "c.json", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestValidateMessageUsesKeyNames(t *testing.T) {
	_, err := Parse([]byte("[sweep]\nstep = 400\n"), "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep.step")
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90m")))
	assert.Equal(t, 90*time.Minute, d.Duration)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", string(text))
}
