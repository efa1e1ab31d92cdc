package system

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
)

// setupTestContext returns a context over a fresh SQLite database whose
// config dir is a temp dir. Output is captured in the returned buffer.
func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Config:     config.DefaultConfig(),
		ConfigPath: filepath.Join(dir, "config.yaml"),
		Store:      store,
		Stdout:     out,
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, out
}
