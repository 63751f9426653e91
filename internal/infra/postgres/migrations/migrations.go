package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change, registered from the versioned files in this package.
var Migrations = migrate.NewMigrations()
