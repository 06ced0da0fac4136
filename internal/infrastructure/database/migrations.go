package database

import (
	"context"
	"fmt"
)

// knexMigrationsTable is where the sidecar's knex migrator records applied
// migrations.
const knexMigrationsTable = "knex_migrations"

// MigrationRecord represents a row in the knex_migrations table.
type MigrationRecord struct {
	ID    int64
	Name  string
	Batch int64
}

// MigrationStatus summarises which sidecar migrations have been applied.
type MigrationStatus struct {
	// Tracked is false when the migrations table does not exist yet,
	// i.e. the sidecar has never started against this database.
	Tracked bool

	Applied []MigrationRecord
}

// Latest returns the most recently applied migration, or nil if none.
func (s MigrationStatus) Latest() *MigrationRecord {
	if len(s.Applied) == 0 {
		return nil
	}
	return &s.Applied[len(s.Applied)-1]
}

// LatestBatch returns the highest batch number, or 0 if none.
func (s MigrationStatus) LatestBatch() int64 {
	var batch int64
	for _, m := range s.Applied {
		if m.Batch > batch {
			batch = m.Batch
		}
	}
	return batch
}

// Migrations reads the sidecar's migration history in application order.
//
// A database without a knex_migrations table is not an error; the returned
// status has Tracked set to false.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - MigrationStatus: Applied migrations ordered by id
//   - error: If the table exists but cannot be read
func (db *DB) Migrations(ctx context.Context) (MigrationStatus, error) {
	var status MigrationStatus

	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		knexMigrationsTable,
	).Scan(&count)
	if err != nil {
		return status, fmt.Errorf("checking migrations table: %w", err)
	}
	if count == 0 {
		return status, nil
	}
	status.Tracked = true

	rows, err := db.QueryContext(ctx,
		"SELECT id, name, batch FROM "+knexMigrationsTable+" ORDER BY id",
	)
	if err != nil {
		return status, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	for rows.Next() {
		var m MigrationRecord
		if err := rows.Scan(&m.ID, &m.Name, &m.Batch); err != nil {
			return status, fmt.Errorf("scanning migration: %w", err)
		}
		status.Applied = append(status.Applied, m)
	}
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("iterating migrations: %w", err)
	}

	return status, nil
}
