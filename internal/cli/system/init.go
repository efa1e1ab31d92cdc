package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/unfilled/internal/backup"
	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/storage"
	"github.com/julianstephens/unfilled/internal/utils"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to migrate data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	// If force flag is provided, delete existing database
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if c.Source != "" {
			absDbPath, err := filepath.Abs(dbPath)
			if err == nil {
				dbPath = absDbPath
			}
			absSource, err := filepath.Abs(utils.MustExpandPath(c.Source))
			if err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized unfilled storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.ConfigPath != "" {
		path := utils.MustExpandPath(ctx.ConfigPath)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := ctx.Config.SaveToFile(path); err != nil {
				return err
			}
			ctx.Printf("Wrote default config to: %s\n", path)
		}
	}

	if c.Source != "" {
		ctx.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(context.Background(), ctx, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}

	return nil
}

func (c *InitCmd) migrateData(ctx context.Context, cctx *cli.Context, sourcePath string) error {
	sourceStore, err := cli.OpenStore(sourcePath)
	if err != nil {
		return err
	}
	if err := sourceStore.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer sourceStore.Close()

	cctx.Println("  Migrating days and covers...")
	snap, err := backup.NewManager(sourceStore, "").Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	for k, v := range snap.Items {
		if err := cctx.Store.SetItem(ctx, k, v); err != nil {
			return fmt.Errorf("failed to copy %s: %w", k, err)
		}
	}
	cctx.Printf("    Migrated %d entries\n", len(snap.Items))

	cctx.Println("  Migrating assignments...")
	for _, a := range snap.Assignments {
		if err := cctx.Store.SetAssignment(ctx, a); err != nil {
			return fmt.Errorf("failed to copy assignment for day %d: %w", a.Day, err)
		}
	}
	cctx.Printf("    Migrated %d assignments\n", len(snap.Assignments))

	cctx.Println("  Migrating gallery posts...")
	n, err := migratePosts(ctx, sourceStore, cctx.Store)
	if err != nil {
		return err
	}
	cctx.Printf("    Migrated %d posts\n", n)
	return nil
}

const migratePageSize = 100

func migratePosts(ctx context.Context, src, dst storage.Provider) (int, error) {
	count := 0
	for offset := 0; ; offset += migratePageSize {
		posts, err := src.ListPosts(ctx, migratePageSize, offset)
		if err != nil {
			return count, fmt.Errorf("failed to list source posts: %w", err)
		}
		for _, p := range posts {
			asset, err := src.GetAsset(ctx, p.AssetID)
			if err != nil {
				return count, fmt.Errorf("failed to read asset %s: %w", p.AssetID, err)
			}
			if err := dst.AddAsset(ctx, asset); err != nil {
				return count, fmt.Errorf("failed to add asset %s: %w", asset.ID, err)
			}
			if err := dst.AddPost(ctx, p); err != nil {
				return count, fmt.Errorf("failed to add post %s: %w", p.ID, err)
			}
			count++
		}
		if len(posts) < migratePageSize {
			return count, nil
		}
	}
}
