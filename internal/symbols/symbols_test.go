package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Len(t, p, 16)
	assert.Equal(t, "🐱", string(p[0]))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.txt")
	body := "# animals\nA\nB\nC\n\nD\nE\nF\nG\nH\nA\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p, 8, "duplicates and comments are dropped")
}

func TestLoadTooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\nB\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrPoolTooSmall)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
