package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/diagnostics"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/gallery"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/metrics"
	"github.com/julianstephens/unfilled/internal/server"
	"github.com/julianstephens/unfilled/internal/storage"
	"github.com/julianstephens/unfilled/internal/utils"
)

type ServeCmd struct {
	Addr    string `help:"Listen address, overriding server.addr."`
	NoWatch bool   `help:"Do not reload the config file when it changes."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := ctx.Config
	m := metrics.New()

	pub, err := openEvents(cfg)
	if err != nil {
		return err
	}
	defer pub.Close()

	// Ephemeral day entries live only as long as the process.
	var kv storage.KV = ctx.Store
	var usage diagnostics.UsageReporter = ctx.Store
	if cfg.Server.EphemeralDays {
		mem := storage.NewMemoryKV(cfg.QuotaBytes())
		kv, usage = mem, mem
		logger.Warn("Day entries are kept in memory and lost on exit")
	}
	days := cli.NewDayStore(kv, cfg, daystore.Options{
		OnEvict: func(ids []string) {
			m.AddEvictions(len(ids))
			events.Emit(context.Background(), pub, events.DaysEvicted, map[string]any{"dayIds": ids})
		},
		OnError: func(string, error) {
			m.ObserveDaySave("error")
		},
	})

	blobs, err := ctx.Blobs(sigCtx)
	if err != nil {
		return err
	}
	repo, err := gallery.NewRepository(gallery.Backend(cfg.Gallery.Backend), ctx.Store, blobs)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Config:      cfg,
		Store:       ctx.Store,
		Days:        days,
		Gallery:     repo,
		Shares:      gallery.NewShareService(ctx.Store),
		Blobs:       blobs,
		Diagnostics: diagnostics.New(days, usage, repo),
		Events:      pub,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	if !c.NoWatch && ctx.ConfigPath != "" {
		if w, err := watchConfig(ctx.ConfigPath, srv); err != nil {
			logger.Warn("Config hot reload disabled", "error", err)
		} else {
			defer w.Close()
		}
	}

	pidPath := PIDFilePath(ctx.ConfigDir())
	if proc, err := findServer(pidPath); err == nil && proc.Running && proc.PID != os.Getpid() {
		return fmt.Errorf("a server is already running (pid %d)", proc.PID)
	}
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("Failed to write pidfile", "path", pidPath, "error", err)
	}
	defer os.Remove(pidPath)

	addr := cfg.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}
	logger.Info("Starting server", "addr", addr, "gallery", repo.Backend(), "db", ctx.Store.GetConfigPath())
	if err := srv.Run(sigCtx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openEvents(cfg *config.Config) (events.Publisher, error) {
	if cfg.Events.NATSURL == "" {
		return events.Nop{}, nil
	}
	pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// watchConfig applies edits of the config file to the running server. Edits
// that do not validate are logged and skipped by the watcher.
func watchConfig(path string, srv *server.Server) (*config.Watcher, error) {
	expanded, err := utils.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return config.Watch(expanded, func(cfg *config.Config) {
		if err := srv.ApplyConfig(cfg); err != nil {
			logger.Error("Failed to apply config", "error", err)
			return
		}
		logger.Info("Config reloaded", "jpegQuality", cfg.Export.JPEGQuality, "evictionRatio", cfg.Storage.EvictionRatio)
	})
}
