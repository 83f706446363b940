package migrate

import (
	"embed"
	"io/fs"
)

//go:embed sql/migrations/*.sql
var migrationFiles embed.FS

//go:embed sql/seeds/*.sql
var seedFiles embed.FS

// Migrations is the embedded schema migration set.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "sql/migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Seeds is the embedded seed set with builtin roles and permissions.
func Seeds() fs.FS {
	sub, err := fs.Sub(seedFiles, "sql/seeds")
	if err != nil {
		panic(err)
	}
	return sub
}
