// Package migrations embeds the versioned SQL schema for each supported
// database driver.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
