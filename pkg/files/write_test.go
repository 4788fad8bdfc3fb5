package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "dir", "main.py")

	require.NoError(t, WriteFile(dst, strings.NewReader("print(1)\n"), 0o600))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", string(data))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, WriteFile(dst, strings.NewReader("x"), 0o600))
	data, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}
