// Package backup snapshots day entries, month covers and assignments into
// JSON archives that can be restored into any storage backend.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

// ArchiveVersion is bumped when the archive layout changes.
const ArchiveVersion = 1

var ErrInvalidArchive = errors.New("invalid backup archive")

// Source is what a backup reads from and restores into.
type Source interface {
	storage.KV
	GetAssignments(ctx context.Context) ([]models.Assignment, error)
	SetAssignment(ctx context.Context, a models.Assignment) error
}

// Archive is the on-disk backup format.
type Archive struct {
	Version     int                 `json:"version"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       map[string]string   `json:"items"`
	Assignments []models.Assignment `json:"assignments"`
}

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// RestoreResult summarizes a restore.
type RestoreResult struct {
	Items       int
	Assignments int
	// SafetyBackup is the archive of the state that was replaced, if any.
	SafetyBackup string
}

// Manager handles backup operations
type Manager struct {
	src       Source
	backupDir string
	now       func() time.Time
}

// NewManager creates a backup manager writing into backupDir.
func NewManager(src Source, backupDir string) *Manager {
	return &Manager{src: src, backupDir: backupDir, now: time.Now}
}

// DefaultDir is the backup directory under a config directory.
func DefaultDir(configDir string) string {
	return filepath.Join(configDir, constants.BackupDirName)
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

func keyPrefixes() []string {
	return []string{constants.DayKeyPrefix, constants.CoverKeyPrefix}
}

// Snapshot reads the current state into an Archive.
func (m *Manager) Snapshot(ctx context.Context) (Archive, error) {
	a := Archive{
		Version:   ArchiveVersion,
		CreatedAt: m.now().UTC(),
		Items:     make(map[string]string),
	}
	for _, prefix := range keyPrefixes() {
		keys, err := m.src.Keys(ctx, prefix)
		if err != nil {
			return Archive{}, fmt.Errorf("failed to list %s keys: %w", prefix, err)
		}
		for _, k := range keys {
			v, ok, err := m.src.GetItem(ctx, k)
			if err != nil {
				return Archive{}, fmt.Errorf("failed to read %s: %w", k, err)
			}
			if ok {
				a.Items[k] = v
			}
		}
	}
	assignments, err := m.src.GetAssignments(ctx)
	if err != nil {
		return Archive{}, fmt.Errorf("failed to read assignments: %w", err)
	}
	a.Assignments = assignments
	return a, nil
}

// CreateBackup writes a new archive and rotates old ones.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	return m.createBackup(ctx, false)
}

// skipRotation keeps the safety backup taken during restore from pushing out
// the archive being restored.
func (m *Manager) createBackup(ctx context.Context, skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	archive, err := m.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	backupPath, err := m.nextPath()
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}
	tmp := backupPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, backupPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	logger.Info("Backup created", "path", backupPath, "items", len(archive.Items))
	return backupPath, nil
}

// nextPath picks a file name with minute precision, falling back to seconds
// and then a counter when names collide.
func (m *Manager) nextPath() (string, error) {
	now := m.now()
	name := func(ts string, counter int) string {
		if counter > 0 {
			return filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, ts, counter, constants.BackupFileSuffix))
		}
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+ts+constants.BackupFileSuffix)
	}

	p := name(now.Format("20060102-1504"), 0)
	if !exists(p) {
		return p, nil
	}
	ts := now.Format("20060102-150405")
	for counter := 0; counter <= 100; counter++ {
		p = name(ts, counter)
		if !exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// parseBackupName extracts the timestamp from a backup file name.
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	// Drop a trailing collision counter (YYYYMMDD-HHMMSS-N).
	parts := strings.Split(ts, "-")
	if len(parts) == 3 && isDigits(parts[2]) {
		ts = parts[0] + "-" + parts[1]
	}

	for _, layout := range []string{"20060102-1504", "20060102-150405"} {
		if t, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ListBackups returns a list of all available backups, sorted by timestamp (newest first)
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// ReadArchive loads and checks an archive file.
func ReadArchive(path string) (Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Archive{}, fmt.Errorf("failed to read backup: %w", err)
	}
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return Archive{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if a.Version < 1 || a.Version > ArchiveVersion {
		return Archive{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidArchive, a.Version)
	}
	for k := range a.Items {
		if !strings.HasPrefix(k, constants.DayKeyPrefix) && !strings.HasPrefix(k, constants.CoverKeyPrefix) {
			return Archive{}, fmt.Errorf("%w: unexpected key %q", ErrInvalidArchive, k)
		}
	}
	return a, nil
}

// RestoreBackup replaces the current days, covers and assignments with the
// archive at backupPath. The current state is archived first.
func (m *Manager) RestoreBackup(ctx context.Context, backupPath string) (RestoreResult, error) {
	archive, err := ReadArchive(backupPath)
	if err != nil {
		return RestoreResult{}, err
	}

	safety, err := m.createBackup(ctx, true)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("failed to backup current state before restore: %w", err)
	}
	res := RestoreResult{SafetyBackup: safety}

	for _, prefix := range keyPrefixes() {
		keys, err := m.src.Keys(ctx, prefix)
		if err != nil {
			return res, fmt.Errorf("failed to list %s keys: %w", prefix, err)
		}
		for _, k := range keys {
			if err := m.src.RemoveItem(ctx, k); err != nil {
				return res, fmt.Errorf("failed to clear %s: %w", k, err)
			}
		}
	}

	keys := make([]string, 0, len(archive.Items))
	for k := range archive.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.src.SetItem(ctx, k, archive.Items[k]); err != nil {
			return res, fmt.Errorf("failed to restore %s: %w", k, err)
		}
		res.Items++
	}

	for _, a := range archive.Assignments {
		if err := m.src.SetAssignment(ctx, a); err != nil {
			return res, fmt.Errorf("failed to restore assignment for day %d: %w", a.Day, err)
		}
		res.Assignments++
	}

	logger.Info("Backup restored", "path", backupPath, "items", res.Items, "assignments", res.Assignments)
	return res, nil
}
