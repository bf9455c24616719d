package database

import (
	"database/sql"
	"fmt"
	"log"
)

// getSchemaVersion reads PRAGMA user_version from the database.
func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// resetCache drops the cache table and clears user_version so the
// migrations rebuild it from scratch. Cached responses are disposable.
func resetCache(conn *sql.DB) error {
	if _, err := conn.Exec("DROP TABLE IF EXISTS http_responses"); err != nil {
		return fmt.Errorf("dropping cache table: %w", err)
	}
	if _, err := conn.Exec("PRAGMA user_version = 0"); err != nil {
		return fmt.Errorf("clearing schema version: %w", err)
	}
	return nil
}

// migrate brings the database schema up to the latest version.
// It uses PRAGMA user_version to track which migrations have been applied.
// A version newer than this binary knows, written by another release
// sharing the cache directory, is discarded and rebuilt.
func migrate(conn *sql.DB) error {
	current, err := getSchemaVersion(conn)
	if err != nil {
		return err
	}

	latest := latestVersion()
	if current > latest {
		log.Printf("cache schema version %d is unknown (latest %d), rebuilding cache", current, latest)
		if err := resetCache(conn); err != nil {
			return err
		}
		current = 0
	}
	if current == latest {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		log.Printf("applying migration %d: %s", m.Version, m.Description)

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		// Set user_version outside the transaction (modernc/sqlite requirement).
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			return fmt.Errorf("setting version %d: %w", m.Version, err)
		}
	}

	return nil
}
