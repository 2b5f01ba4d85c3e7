// Package migrations embeds SQL migration files into the binary so the
// bridge can create its schema without the SQL files present on disk.
package migrations

import (
	"embed"

	"github.com/homespan/knxbridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
