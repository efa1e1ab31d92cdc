package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
)

func setupTestContext(t *testing.T, stdin string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, store.Init())

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Config:     config.DefaultConfig(),
		ConfigPath: filepath.Join(dir, "config.yaml"),
		Store:      store,
		Stdout:     out,
		Stdin:      strings.NewReader(stdin),
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, out
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out := setupTestContext(t, "")

	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found.")

	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Backup created:")

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Available backups (1 total")
}

func TestBackupRestore(t *testing.T) {
	bg := context.Background()
	ctx, out := setupTestContext(t, "")
	key := daystore.DayKey("2024-04-01")

	require.NoError(t, ctx.Store.SetItem(bg, key, `{"id":"2024-04-01"}`))
	path, err := ctx.Backups().CreateBackup(bg)
	require.NoError(t, err)

	require.NoError(t, ctx.Store.RemoveItem(bg, key))
	require.NoError(t, ctx.Store.SetItem(bg, daystore.DayKey("2024-04-02"), `{"id":"2024-04-02"}`))

	// Restore by bare filename, resolved against the backup directory.
	require.NoError(t, (&BackupRestoreCmd{BackupFile: filepath.Base(path), Yes: true}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Restored 1 entries")

	_, ok, err := ctx.Store.GetItem(bg, key)
	require.NoError(t, err)
	assert.True(t, ok, "restored day missing")
	_, ok, err = ctx.Store.GetItem(bg, daystore.DayKey("2024-04-02"))
	require.NoError(t, err)
	assert.False(t, ok, "day added after the backup survived the restore")
}

func TestBackupRestoreCancelled(t *testing.T) {
	bg := context.Background()
	ctx, out := setupTestContext(t, "no\n")

	path, err := ctx.Backups().CreateBackup(bg)
	require.NoError(t, err)
	require.NoError(t, ctx.Store.SetItem(bg, daystore.DayKey("2024-04-03"), `{"id":"2024-04-03"}`))

	require.NoError(t, (&BackupRestoreCmd{BackupFile: path}).Run(ctx))
	assert.Contains(t, out.String(), "Restore cancelled.")

	_, ok, err := ctx.Store.GetItem(bg, daystore.DayKey("2024-04-03"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupTestContext(t, "")
	err := (&BackupRestoreCmd{BackupFile: "nope.json", Yes: true}).Run(ctx)
	assert.ErrorContains(t, err, "backup file not found")
}
