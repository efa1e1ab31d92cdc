package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindServer(t *testing.T) {
	dir := t.TempDir()
	path := PIDFilePath(dir)

	proc, err := findServer(path)
	require.NoError(t, err)
	assert.Zero(t, proc.PID, "missing pidfile")

	require.NoError(t, writePIDFile(path))
	proc, err = findServer(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), proc.PID)
	assert.True(t, proc.Running)

	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o644))
	_, err = findServer(path)
	assert.Error(t, err)
}

func TestCheckServerProcessStale(t *testing.T) {
	ctx, _ := setupTestContext(t)
	path := PIDFilePath(ctx.ConfigDir())
	require.Equal(t, filepath.Dir(ctx.ConfigPath), filepath.Dir(path))

	// PIDs this large are never handed out on Linux or macOS.
	require.NoError(t, os.WriteFile(path, []byte("2147483646\n"), 0o644))
	err := checkServerProcess(context.Background(), ctx)
	assert.ErrorContains(t, err, "stale pidfile")
}
