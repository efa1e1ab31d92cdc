package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/cli/backups"
	"github.com/julianstephens/unfilled/internal/cli/days"
	"github.com/julianstephens/unfilled/internal/cli/edits"
	"github.com/julianstephens/unfilled/internal/cli/exports"
	"github.com/julianstephens/unfilled/internal/cli/posts"
	"github.com/julianstephens/unfilled/internal/cli/system"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/constants"
	apperrors "github.com/julianstephens/unfilled/internal/errors"
	"github.com/julianstephens/unfilled/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"~/.config/unfilled/config.yaml"`
	DB      string `name:"db" help:"SQLite path, PostgreSQL connection string without credentials, or 'keyring'. Overrides storage.db."`
	Debug   bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd    `cmd:"" help:"Initialize unfilled storage."`
	Migrate  system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve    system.ServeCmd   `cmd:"" help:"Run the HTTP server."`
	Tui      system.TuiCmd     `cmd:"" help:"Launch the interactive month browser." default:"1"`
	Day      days.DayCmd       `cmd:"" help:"Record photos, notes and tasks on days."`
	Cover    days.CoverCmd     `cmd:"" help:"Show or set a month's cover image."`
	Export   exports.ExportCmd `cmd:"" help:"Export wallpapers and month calendars."`
	Gallery  posts.GalleryCmd  `cmd:"" help:"Manage the gallery."`
	Edits    edits.EditsCmd    `cmd:"" help:"Manage saved wallpaper crops."`
	Keyring  system.KeyringCmd `cmd:"" help:"Manage secrets in the OS keyring."`
	DebugCmd system.DebugCmd   `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage backups of days, covers and assignments."`
}

// needsLoad reports whether command expects an initialized database.
func needsLoad(command string) bool {
	for _, prefix := range []string{"init", "migrate", "doctor", "keyring", "export presets", "export month"} {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Photographer's visual calendar: day photos, wallpaper exports and a shareable gallery"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.DB != "" {
		cfg.Storage.DB = CLI.DB
	}

	appCtx := &cli.Context{Config: cfg, ConfigPath: CLI.Config}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Log.Debug,
		ConfigDir: appCtx.ConfigDir(),
		Console:   strings.HasPrefix(ctx.Command(), "serve"),
		JSON:      cfg.Log.JSON,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.OpenStore(cfg.Storage.DB)
	if err != nil {
		apperrors.Fatal(err)
	}
	appCtx.Store = store

	if needsLoad(ctx.Command()) {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Error("Shutdown failed", "error", cerr)
	}
	apperrors.Fatal(err)
}
