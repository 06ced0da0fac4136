// Package database gives the shell read-only access to the sidecar's SQLite
// database.
//
// The sidecar service owns the database: it creates the file at the path
// passed in DATABASE_PATH and applies its own knex migrations. This package
// covers the two things the shell needs:
//   - EnsureDir creates the database's parent directory before the sidecar starts
//   - OpenReadOnly and Migrations report on the database for diagnostics
//
// Connections are opened with mode=ro, so a running sidecar is never blocked
// by a writer lock held by the shell.
//
// Usage:
//
//	db, err := database.OpenReadOnly(ctx, database.Config{Path: dbPath})
//	if errors.Is(err, database.ErrNotFound) {
//	    // sidecar never started
//	}
//	defer db.Close()
//
//	status, err := db.Migrations(ctx)
package database
