package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/diagnostics"
)

type DebugCmd struct {
	DBPath  DebugDBPathCmd  `cmd:"" name:"db-path" help:"Show database path."`
	Stats   DebugStatsCmd   `cmd:"" help:"Dump the storage report as JSON."`
	DumpDay DebugDumpDayCmd `cmd:"" name:"dump-day" help:"Dump the raw stored JSON of a day."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path":      ctx.Store.GetConfigPath(),
		"configDir": ctx.ConfigDir(),
	})
}

type DebugStatsCmd struct{}

func (cmd *DebugStatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	posts, err := ctx.Gallery(bg)
	if err != nil {
		return err
	}
	report, err := diagnostics.New(ctx.Days(), ctx.Store, posts).Report(bg)
	if err != nil {
		return err
	}
	return printJSON(ctx, report)
}

type DebugDumpDayCmd struct {
	Day string `arg:"" default:"today" help:"Day to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(cmd.Day)
	if err != nil {
		return err
	}

	raw, ok, err := ctx.Store.GetItem(context.Background(), daystore.DayKey(dayID))
	if err != nil {
		return fmt.Errorf("failed to read day %s: %w", dayID, err)
	}
	if !ok {
		return fmt.Errorf("no entry stored for day: %s", dayID)
	}

	// Stored bytes are printed even when they no longer decode.
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		ctx.Println(raw)
		return nil
	}
	return printJSON(ctx, v)
}
