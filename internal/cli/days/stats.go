package days

import (
	"context"
	"fmt"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/diagnostics"
)

type DayClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *DayClearCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if !c.Yes {
		ctx.Println("⚠️  WARNING: This deletes every day entry. Covers and the gallery are kept.")
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
		// A safety net for an irreversible wipe.
		ctx.PerformAutomaticBackup(bg)
	}

	n, err := diagnostics.New(ctx.Days(), ctx.Store, nil).ClearDays(bg)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Cleared %d day entries\n", n)
	return nil
}

type DayStatsCmd struct {
	Top int `help:"How many of the largest days to list." default:"5"`
}

func (c *DayStatsCmd) Run(ctx *cli.Context) error {
	report, err := diagnostics.New(ctx.Days(), ctx.Store, nil).Report(context.Background())
	if err != nil {
		return err
	}

	ctx.Printf("Days stored:   %d\n", report.Days.Count)
	ctx.Printf("Total size:    %.1f KB\n", report.Days.TotalKB)
	if report.Usage.QuotaBytes > 0 {
		ctx.Printf("Quota usage:   %.1f / %.1f KB (%.0f%%)\n",
			float64(report.Usage.UsedBytes)/1024, float64(report.Usage.QuotaBytes)/1024, report.UsagePercent)
	} else {
		ctx.Printf("Quota usage:   %.1f KB (unlimited)\n", float64(report.Usage.UsedBytes)/1024)
	}

	if n := min(c.Top, len(report.Days.Entries)); n > 0 {
		ctx.Println("\nLargest days:")
		for _, e := range report.Days.Entries[:n] {
			ctx.Printf("  %s  %6.1f KB\n", e.DayID, e.SizeKB)
		}
	}
	for _, w := range report.Warnings {
		ctx.Printf("⚠ %s\n", w)
	}
	return nil
}

type CoverCmd struct {
	Month string `arg:"" help:"Month (YYYY-MM)."`
	URL   string `arg:"" optional:"" help:"New cover URL. Omit to show the current cover."`
	Mode  string `help:"Calendar mode the cover belongs to." default:"poster"`
}

func (c *CoverCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.URL == "" {
		url, err := ctx.Days().GetCover(bg, c.Month, c.Mode)
		if err != nil {
			return err
		}
		ctx.Println(url)
		return nil
	}
	if err := ctx.Days().SetCover(bg, c.Month, c.Mode, c.URL); err != nil {
		return fmt.Errorf("failed to set cover: %w", err)
	}
	ctx.Printf("✓ Cover for %s (%s) set\n", c.Month, c.Mode)
	return nil
}
