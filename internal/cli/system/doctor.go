package system

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/diagnostics"
	"github.com/julianstephens/unfilled/internal/keyring"
	"github.com/julianstephens/unfilled/internal/models"
)

type DoctorCmd struct{}

type check struct {
	name string
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	// warnOnly checks print a warning instead of failing the run.
	warnOnly bool
	run      func(context.Context, *cli.Context) error
}

func doctorChecks() []check {
	return []check{
		{name: "Config valid", run: checkConfig},
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Day entries", needsDB: true, run: checkDayEntries},
		{name: "Storage quota", needsDB: true, warnOnly: true, run: checkStorageQuota},
		{name: "Backups present", needsDB: true, warnOnly: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Server process", warnOnly: true, run: checkServerProcess},
		{name: "OS keyring", warnOnly: true, run: checkKeyring},
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := false

	if err := checkDBReachable(bg, ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	for _, c := range doctorChecks() {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx context.Context, cctx *cli.Context) error {
	if err := cctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return cctx.Store.Ping(ctx)
}

func checkConfig(_ context.Context, cctx *cli.Context) error {
	return cctx.Config.Validate()
}

func checkSchemaVersion(_ context.Context, cctx *cli.Context) error {
	current, latest, err := cctx.Store.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(_ context.Context, cctx *cli.Context) error {
	current, latest, err := cctx.Store.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

// checkDayEntries decodes every stored day and checks its key matches its
// id.
func checkDayEntries(ctx context.Context, cctx *cli.Context) error {
	ids, err := cctx.Days().List(ctx)
	if err != nil {
		return err
	}
	bad := 0
	for _, id := range ids {
		raw, ok, err := cctx.Store.GetItem(ctx, constants.DayKeyPrefix+id)
		if err != nil {
			return fmt.Errorf("failed to read day %s: %w", id, err)
		}
		if !ok {
			continue
		}
		var e models.DayEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || e.ID != id || models.ValidateDayID(id) != nil {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("found %d unreadable day entries (they load as empty days)", bad)
	}
	return nil
}

func checkStorageQuota(ctx context.Context, cctx *cli.Context) error {
	report, err := diagnostics.New(cctx.Days(), cctx.Store, nil).Report(ctx)
	if err != nil {
		return err
	}
	if len(report.Warnings) > 0 {
		return fmt.Errorf("%s", report.Warnings[0])
	}
	return nil
}

func checkBackupsPresent(_ context.Context, cctx *cli.Context) error {
	backups, err := cctx.Backups().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkClockTimezone(_ context.Context, cctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := time.LoadLocation(cctx.Config.Timezone); err != nil {
		return fmt.Errorf("timezone %q cannot be loaded: %w", cctx.Config.Timezone, err)
	}
	return nil
}

func checkServerProcess(_ context.Context, cctx *cli.Context) error {
	path := PIDFilePath(cctx.ConfigDir())
	proc, err := findServer(path)
	if err != nil {
		return err
	}
	if proc.PID != 0 && !proc.Running {
		return fmt.Errorf("stale pidfile %s (process %d is not running)", path, proc.PID)
	}
	return nil
}

func checkKeyring(_ context.Context, cctx *cli.Context) error {
	if !keyring.IsAvailable() {
		if cctx.Config.Blob.Driver == "minio" && cctx.Config.Blob.SecretKey == "" {
			return fmt.Errorf("OS keyring is not available and no blob secret is configured")
		}
		return fmt.Errorf("OS keyring is not available")
	}
	return nil
}
