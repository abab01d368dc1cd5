package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("  s3cret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank"), []byte("\n\t"), 0o600))

	secret, err := ReadSecret(dir, "db_password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	_, err = ReadSecret(dir, "blank")
	assert.ErrorContains(t, err, "is empty")

	_, err = ReadSecret(dir, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
