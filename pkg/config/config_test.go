package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scapegoat/pkg/config"
)

func writeProfile(tb testing.TB, contents string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "profile.yaml")
	err := os.WriteFile(path, []byte(contents), 0o600)
	require.NoError(tb, err)

	return path
}

func TestLoad_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	profile, err := config.Load(writeProfile(t, ""))
	require.NoError(t, err)

	assert.InDelta(t, 0.65, profile.Stress.Alpha, 1e-9)
	assert.Equal(t, 100000, profile.Stress.Ops)
	assert.Equal(t, int64(1), profile.Stress.Seed)
	assert.Equal(t, uint32(1<<20), profile.Stress.Keyspace)
	assert.Equal(t, 1024, profile.Stress.VerifyEvery)
	assert.Equal(t, 0, profile.Stress.Shards)
	assert.Empty(t, profile.Stress.MetricsAddr)
	assert.Equal(t, "info", profile.Logging.Level)
	assert.Equal(t, "text", profile.Logging.Format)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
stress:
  alpha: 0.75
  ops: 500
  seed: 42
  keyspace: 4096
  verify_every: 10
  shards: 4
  metrics_addr: "127.0.0.1:9095"
logging:
  level: debug
  format: json
`)

	profile, err := config.Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, profile.Stress.Alpha, 1e-9)
	assert.Equal(t, 500, profile.Stress.Ops)
	assert.Equal(t, int64(42), profile.Stress.Seed)
	assert.Equal(t, uint32(4096), profile.Stress.Keyspace)
	assert.Equal(t, 10, profile.Stress.VerifyEvery)
	assert.Equal(t, 4, profile.Stress.Shards)
	assert.Equal(t, "127.0.0.1:9095", profile.Stress.MetricsAddr)
	assert.Equal(t, "debug", profile.Logging.Level)
	assert.Equal(t, "json", profile.Logging.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		wantErr  error
	}{
		{
			name:     "alpha_too_high",
			contents: "stress:\n  alpha: 1.5\n",
			wantErr:  config.ErrInvalidAlpha,
		},
		{
			name:     "alpha_at_lower_bound",
			contents: "stress:\n  alpha: 0.5\n",
			wantErr:  config.ErrInvalidAlpha,
		},
		{
			name:     "ops_zero",
			contents: "stress:\n  ops: 0\n",
			wantErr:  config.ErrInvalidOps,
		},
		{
			name:     "keyspace_zero",
			contents: "stress:\n  keyspace: 0\n",
			wantErr:  config.ErrInvalidKeyspace,
		},
		{
			name:     "verify_every_negative",
			contents: "stress:\n  verify_every: -1\n",
			wantErr:  config.ErrInvalidVerifyEvery,
		},
		{
			name:     "shards_negative",
			contents: "stress:\n  shards: -2\n",
			wantErr:  config.ErrInvalidShards,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeProfile(t, tt.contents))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProfile_WriteYAML_RoundTrip(t *testing.T) {
	t.Parallel()

	original := &config.Profile{
		Stress: config.StressConfig{
			Alpha:       0.7,
			Ops:         1234,
			Seed:        7,
			Keyspace:    999,
			VerifyEvery: 50,
			Shards:      2,
			MetricsAddr: "localhost:9100",
		},
		Logging: config.LoggingConfig{Level: "warn", Format: "json"},
	}

	var buf bytes.Buffer

	err := original.WriteYAML(&buf)
	require.NoError(t, err)

	path := writeProfile(t, buf.String())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}
