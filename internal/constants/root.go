package constants

import "time"

const (
	AppName             = "unfilled"
	DefaultKeyringUser  = "database-connection"
	BlobSecretUser      = "blob-secret-key"
	DefaultConfigDir    = "~/.config/unfilled"
	DefaultDBPath       = "~/.config/unfilled/unfilled.db"
	DefaultConfigFile   = "~/.config/unfilled/config.yaml"
	DefaultUploadsDir   = "~/.config/unfilled/uploads"
	ServerPIDFileName   = "unfilled-server.pid"
	Version             = "v0.3.0"
	DefaultServerAddr   = ":3000"
	DefaultBlobBucket   = "gallery-images"
	DefaultMaxUploadMB  = 50
	DefaultCalendarMode = "poster"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "unfilled-"
	BackupFileSuffix = ".json"

	// Storage keys
	DayKeyPrefix   = "unfilled:day:"
	CoverKeyPrefix = "unfilled:cover:"

	// Day entry limits
	MaxNotesPerDay    = 50
	MaxNoteLength     = 500
	MaxTasksPerDay    = 100
	MaxTaskLength     = 200
	DayEntryWarnBytes = 50 * 1024

	// DefaultQuotaKB mirrors the usual browser localStorage budget.
	DefaultQuotaKB       = 5 * 1024
	DefaultEvictionRatio = 0.5
	DefaultSaveDebounce  = 500 * time.Millisecond

	// Export constants
	DefaultJPEGQuality = 90
	DefaultBackground  = "#000000"

	// Month PDF year window
	MinExportYear = 1970
	MaxExportYear = 2100

	// Gallery constants
	DefaultPostLimit    = 100
	DefaultShareTitle   = "Unfilled Gallery"
	MaxSlugAttempts     = 100
	MinSlugLength       = 3
	MaxSlugLength       = 40
	DefaultEventsPrefix = "unfilled"
)
