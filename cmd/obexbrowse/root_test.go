package main

import (
	"os"
	"testing"
	"time"

	"obex-browser/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFlagDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("", rootCmd.Flags())
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.ScanTimeout)
	assert.Equal(t, "downloaded", cfg.DownloadDir)
	assert.Empty(t, cfg.Device)
	assert.Empty(t, cfg.LocalRoot)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestRootRejectsArguments(t *testing.T) {
	rootCmd.SetArgs([]string{"unexpected"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
}
