package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, loadEnv(filepath.Join(dir, "missing.env")))

	good := filepath.Join(dir, "good.env")
	require.NoError(t, os.WriteFile(good, []byte("POURD_TEST_MENU=/etc/pourd/menu.yaml\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("POURD_TEST_MENU") })

	require.NoError(t, loadEnv(good))
	require.Equal(t, "/etc/pourd/menu.yaml", os.Getenv("POURD_TEST_MENU"))

	broken := filepath.Join(dir, "broken.env")
	require.NoError(t, os.WriteFile(broken, []byte("POURD_TEST_NAME=\"unterminated\n"), 0600))

	err := loadEnv(broken)
	require.Error(t, err)
	require.Contains(t, err.Error(), broken)
}
