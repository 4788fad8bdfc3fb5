package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "python3", cfg.Interpreter)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, int64(8*1024*1024), cfg.MaxOutputSize)
	assert.Equal(t, 500*time.Millisecond, cfg.KillDelay)
	assert.Equal(t, 100, cfg.LongLineWords)
	assert.Equal(t, []string{"break", "continue", "while-true"}, cfg.BannedConstructs)
	assert.Equal(t, runtime.NumCPU(), cfg.WorkersCount)
}

func TestNewConfig_Env(t *testing.T) {
	t.Setenv("GRADER_TIMEOUT", "1500ms")
	t.Setenv("GRADER_BANNED", "break,global")
	t.Setenv("WORKERS_COUNT", "3")
	t.Setenv("MINIO_LOGIN", "grader")
	t.Setenv("MINIO_PASSWORD", "secret")

	cfg, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"break", "global"}, cfg.BannedConstructs)
	assert.Equal(t, 3, cfg.WorkersCount)
	assert.True(t, cfg.MinIOEnabled())
}

func TestNewConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interpreter: python3.12\nlong_line_words: 40\ntimeout: 2s\n"), 0o644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "python3.12", cfg.Interpreter)
	assert.Equal(t, 40, cfg.LongLineWords)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.False(t, cfg.MinIOEnabled())
}

func TestNewConfig_InvalidTimeout(t *testing.T) {
	t.Setenv("GRADER_TIMEOUT", "-1s")

	_, err := NewConfig("")

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestConfigurationError(t *testing.T) {
	base := errors.New("no such file")
	err := errors.Wrap(Wrap("patterns file", base), "grading")

	assert.True(t, IsConfigurationError(err))
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, "grading: invalid patterns file: no such file", err.Error())
	assert.Nil(t, Wrap("x", nil))
	assert.False(t, IsConfigurationError(base))
}
