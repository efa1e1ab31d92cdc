package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
)

func newInitContext(t *testing.T, dbPath string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Config:     config.DefaultConfig(),
		ConfigPath: filepath.Join(filepath.Dir(dbPath), "config.yaml"),
		Store:      sqlite.NewStore(dbPath),
		Stdout:     out,
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, out
}

func TestInitCmd_WritesDatabaseAndConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unfilled.db")
	ctx, out := newInitContext(t, dbPath)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("InitCmd.Run() error = %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if _, err := os.Stat(ctx.ConfigPath); err != nil {
		t.Errorf("config not written: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote default config") {
		t.Errorf("expected config message, got:\n%s", out)
	}

	loaded, err := config.LoadFromFile(ctx.ConfigPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Storage.QuotaKB != ctx.Config.Storage.QuotaKB {
		t.Errorf("QuotaKB = %v, want %v", loaded.Storage.QuotaKB, ctx.Config.Storage.QuotaKB)
	}
}

func TestInitCmd_KeepsExistingConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unfilled.db")
	ctx, out := newInitContext(t, dbPath)

	if err := os.WriteFile(ctx.ConfigPath, []byte("timezone: UTC\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("InitCmd.Run() error = %v", err)
	}

	data, err := os.ReadFile(ctx.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "timezone: UTC\n" {
		t.Errorf("existing config was overwritten: %q", data)
	}
	if strings.Contains(out.String(), "Wrote default config") {
		t.Error("init should not report writing a config that already existed")
	}
}

func TestInitCmd_ForceSameSource(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unfilled.db")
	ctx, _ := newInitContext(t, dbPath)

	err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "same") {
		t.Errorf("InitCmd.Run() error = %v, want source/destination error", err)
	}
}

func TestInitCmd_MigratesFromSource(t *testing.T) {
	bg := context.Background()
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "source.db")
	src := sqlite.NewStore(srcPath)
	if err := src.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	if err := src.SetItem(bg, constants.DayKeyPrefix+"2024-05-01", `{"id":"2024-05-01","notes":[],"tasks":[]}`); err != nil {
		t.Fatal(err)
	}
	if err := src.SetItem(bg, constants.CoverKeyPrefix+"2024-05:poster", "https://example.com/may.jpg"); err != nil {
		t.Fatal(err)
	}
	if err := src.SetAssignment(bg, models.Assignment{Day: 3, URL: "https://example.com/3.jpg"}); err != nil {
		t.Fatal(err)
	}
	src.Close()

	ctx, out := newInitContext(t, filepath.Join(dir, "dest", "unfilled.db"))
	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("InitCmd.Run() error = %v\n%s", err, out)
	}

	raw, ok, err := ctx.Store.GetItem(bg, constants.DayKeyPrefix+"2024-05-01")
	if err != nil || !ok {
		t.Fatalf("GetItem() = %q, %v, %v; want migrated day", raw, ok, err)
	}
	assignments, err := ctx.Store.GetAssignments(bg)
	if err != nil {
		t.Fatal(err)
	}
	if len(assignments) != 1 || assignments[0].URL != "https://example.com/3.jpg" {
		t.Errorf("GetAssignments() = %+v, want the migrated assignment", assignments)
	}
	if !strings.Contains(out.String(), "Migrated 2 entries") {
		t.Errorf("expected entry count in output, got:\n%s", out)
	}
}
