package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 256, cfg.Defaults.KeyLength)
	require.Equal(t, 4, cfg.Defaults.TransmissionMultiplier)
	require.Equal(t, 100, cfg.Batch.MaxRuns)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qkdsim.toml")
	data := `
[server]
addr = ":9000"

[log]
level = "debug"

[defaults]
key_length = 512

[rate_limit]
per_second = 1.5
burst = 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 512, cfg.Defaults.KeyLength)
	require.Equal(t, 1.5, cfg.RateLimit.PerSecond)
	require.Equal(t, 3, cfg.RateLimit.Burst)
	// Untouched sections keep their defaults.
	require.Equal(t, 0.5, cfg.Defaults.InterceptRate)
	require.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	tcs := []struct {
		name string
		data string
	}{
		{"unknown key", "[server]\nport = 80\n"},
		{"unknown section", "[database]\nurl = \"x\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"short key", "[defaults]\nkey_length = 8\n"},
		{"rate above one", "[defaults]\nintercept_rate = 1.5\n"},
		{"multiplier", "[defaults]\ntransmission_multiplier = 11\n"},
		{"multiplier too small to sift a key", "[defaults]\ntransmission_multiplier = 2\n"},
		{"check fraction starves smallest multiplier", "[defaults]\ncheck_fraction = 0.4\n"},
		{"check fraction", "[defaults]\ncheck_fraction = 0.0\n"},
		{"attempts", "[defaults]\nmax_attempts = 0\n"},
		{"concurrency", "[batch]\nconcurrency = -1\n"},
		{"max runs", "[batch]\nmax_runs = 500\n"},
		{"burst", "[rate_limit]\nburst = 0\n"},
		{"empty addr", "[server]\naddr = \" \"\n"},
		{"malformed", "[server\n"},
		{"wrong type", "[defaults]\nkey_length = \"long\"\n"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.data)
			require.Error(t, err)
		})
	}
}
