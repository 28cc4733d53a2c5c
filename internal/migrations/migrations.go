// Package migrations embeds the schema for every supported store.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var files embed.FS

// For returns the migration files of the given driver.
func For(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite", "postgres", "mysql":
		return fs.Sub(files, driver)
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
