package system

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/julianstephens/unfilled/internal/daystore"
)

func TestDebugDBPathCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&DebugDBPathCmd{}).Run(ctx); err != nil {
		t.Fatalf("DebugDBPathCmd.Run() error = %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["path"] != ctx.Store.GetConfigPath() {
		t.Errorf("path = %v, want %v", got["path"], ctx.Store.GetConfigPath())
	}
	if got["configDir"] != ctx.ConfigDir() {
		t.Errorf("configDir = %v, want %v", got["configDir"], ctx.ConfigDir())
	}
}

func TestDebugDumpDayCmd(t *testing.T) {
	bg := context.Background()
	ctx, out := setupTestContext(t)

	if err := (&DebugDumpDayCmd{Day: "2024-02-10"}).Run(ctx); err == nil {
		t.Error("dumping a missing day should fail")
	}
	if err := (&DebugDumpDayCmd{Day: "10/02/2024"}).Run(ctx); err == nil {
		t.Error("dumping a malformed day should fail")
	}

	if err := ctx.Store.SetItem(bg, daystore.DayKey("2024-02-10"), `{"id":"2024-02-10","notes":[]}`); err != nil {
		t.Fatal(err)
	}
	if err := (&DebugDumpDayCmd{Day: "2024-02-10"}).Run(ctx); err != nil {
		t.Fatalf("DebugDumpDayCmd.Run() error = %v", err)
	}
	if !strings.Contains(out.String(), `"id": "2024-02-10"`) {
		t.Errorf("expected indented JSON, got:\n%s", out)
	}

	out.Reset()
	if err := ctx.Store.SetItem(bg, daystore.DayKey("2024-02-11"), "garbage"); err != nil {
		t.Fatal(err)
	}
	if err := (&DebugDumpDayCmd{Day: "2024-02-11"}).Run(ctx); err != nil {
		t.Fatalf("DebugDumpDayCmd.Run() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "garbage" {
		t.Errorf("raw output = %q, want garbage", out.String())
	}
}

func TestDebugStatsCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := ctx.Store.SetItem(context.Background(), daystore.DayKey("2024-02-10"), `{"id":"2024-02-10"}`); err != nil {
		t.Fatal(err)
	}

	if err := (&DebugStatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("DebugStatsCmd.Run() error = %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
}
