package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/unfilled/internal/backup"
	"github.com/julianstephens/unfilled/internal/blob"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/gallery"
	"github.com/julianstephens/unfilled/internal/keyring"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/storage"
	"github.com/julianstephens/unfilled/internal/storage/postgres"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
	"github.com/julianstephens/unfilled/internal/utils"
)

// KeyringDB is the --db value that reads the connection string from the OS
// keyring.
const KeyringDB = "keyring"

type Context struct {
	Config *config.Config
	// ConfigPath is the YAML file the config was read from. It may not exist.
	ConfigPath string
	Store      storage.Provider

	Stdout io.Writer
	Stdin  io.Reader

	days  *daystore.Store
	blobs blob.Store
}

// ConfigDir holds the config file, logs, backups and the server pidfile.
func (c *Context) ConfigDir() string {
	if c.ConfigPath != "" {
		return filepath.Dir(utils.MustExpandPath(c.ConfigPath))
	}
	return utils.MustExpandPath(constants.DefaultConfigDir)
}

func (c *Context) Out() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out(), args...)
}

// Confirm asks a y/N question on Stdin.
func (c *Context) Confirm(prompt string) (bool, error) {
	in := c.Stdin
	if in == nil {
		in = os.Stdin
	}
	c.Printf("%s [y/N]: ", prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Days returns the day store over the database, built on first use.
func (c *Context) Days() *daystore.Store {
	if c.days == nil {
		c.days = NewDayStore(c.Store, c.Config, daystore.Options{})
	}
	return c.days
}

// NewDayStore applies the configured quota and eviction settings to kv.
func NewDayStore(kv storage.KV, cfg *config.Config, opts daystore.Options) *daystore.Store {
	if q, ok := kv.(interface{ SetQuota(int64) }); ok {
		q.SetQuota(cfg.QuotaBytes())
	}
	if opts.EvictionRatio == 0 {
		opts.EvictionRatio = cfg.Storage.EvictionRatio
	}
	if opts.Debounce == 0 {
		opts.Debounce = cfg.Storage.SaveDebounce
	}
	return daystore.New(kv, opts)
}

// Blobs opens the configured blob store on first use.
func (c *Context) Blobs(ctx context.Context) (blob.Store, error) {
	if c.blobs != nil {
		return c.blobs, nil
	}
	bs, err := OpenBlobs(ctx, c.Config)
	if err != nil {
		return nil, err
	}
	c.blobs = bs
	return bs, nil
}

// OpenBlobs builds the fs or minio blob store from cfg. The minio secret
// falls back to the keyring.
func OpenBlobs(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Driver {
	case "minio":
		secret, err := keyring.ResolveBlobSecret(cfg.Blob.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve blob secret: %w", err)
		}
		return blob.NewMinIOStore(ctx, blob.MinIOConfig{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: secret,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
			PublicURL: cfg.Blob.PublicURL,
		})
	default:
		dir, err := utils.ExpandPath(cfg.Blob.Dir)
		if err != nil {
			return nil, err
		}
		return blob.NewFSStore(dir, cfg.Blob.URLPrefix)
	}
}

// Gallery builds the configured gallery repository. The local backend never
// touches the blob store.
func (c *Context) Gallery(ctx context.Context) (gallery.Repository, error) {
	backend := gallery.Backend(c.Config.Gallery.Backend)
	if backend != gallery.BackendHosted {
		return gallery.NewRepository(backend, c.Store, nil)
	}
	bs, err := c.Blobs(ctx)
	if err != nil {
		return nil, err
	}
	return gallery.NewRepository(backend, c.Store, bs)
}

func (c *Context) Backups() *backup.Manager {
	return backup.NewManager(c.Store, backup.DefaultDir(c.ConfigDir()))
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	if _, err := c.Backups().CreateBackup(ctx); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Now is the current time in the configured timezone.
func (c *Context) Now() time.Time {
	now, err := utils.NowInTimezone(c.Config.Timezone)
	if err != nil {
		return time.Now()
	}
	return now
}

// ResolveDayID accepts YYYY-MM-DD, "today", "yesterday" or "tomorrow".
func (c *Context) ResolveDayID(arg string) (string, error) {
	today := c.Now().Format(constants.DateFormat)
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return utils.ShiftDay(today, -1)
	case "tomorrow":
		return utils.ShiftDay(today, 1)
	}
	return arg, validateDay(arg)
}

func validateDay(id string) error {
	if _, err := utils.ParseDayID(id); err != nil {
		return fmt.Errorf("invalid day %q (expected YYYY-MM-DD, today, yesterday or tomorrow)", id)
	}
	return nil
}

// Close flushes pending day writes and closes the store.
func (c *Context) Close() error {
	var errs []error
	if c.days != nil {
		if err := c.days.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush day entries: %w", err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// OpenStore picks the backend for db: a PostgreSQL connection string, the
// keyring entry, or a SQLite path.
func OpenStore(db string) (storage.Provider, error) {
	if db == KeyringDB {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, run '%s keyring set-dsn' first", constants.AppName)
			}
			return nil, err
		}
		return postgres.New(connStr), nil
	}
	if postgres.IsConnString(db) {
		if _, err := postgres.ValidateConnString(db); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed; store it with '%s keyring set-dsn' or use .pgpass", constants.AppName)
			}
			return nil, err
		}
		return postgres.New(db), nil
	}
	path, err := utils.ExpandPath(db)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}
