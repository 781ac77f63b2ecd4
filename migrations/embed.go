// Package migrations holds the SQL schema for each supported database driver.
// Files are applied in lexical order and recorded in schema_migrations.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
