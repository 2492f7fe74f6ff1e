// Package migrations embeds the SQL migrations of the catalog, one
// directory per database driver.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
