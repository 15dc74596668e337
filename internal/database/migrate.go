package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// A migration is one schema version. Statements must be additive so that
// re-deploying an old database never loses rows.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is the ordered schema history. Append only; never edit or
// reorder an entry that has shipped.
var migrations = []migration{
	{
		version: 1,
		name:    "create todos table",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS todos (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				completed BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		version: 2,
		name:    "add priority and due_date",
		stmts: []string{
			`ALTER TABLE todos ADD COLUMN priority TEXT NOT NULL DEFAULT 'medium'`,
			`ALTER TABLE todos ADD COLUMN due_date TEXT`,
		},
	},
	{
		version: 3,
		name:    "add category",
		stmts: []string{
			`ALTER TABLE todos ADD COLUMN category TEXT`,
		},
	},
	{
		version: 4,
		name:    "add position for manual ordering",
		stmts: []string{
			`ALTER TABLE todos ADD COLUMN position INTEGER`,
		},
	},
	{
		version: 5,
		name:    "add completed_by",
		stmts: []string{
			`ALTER TABLE todos ADD COLUMN completed_by TEXT`,
		},
	},
}

// Migrate brings the schema up to the current version. Each pending
// migration runs in its own transaction and is recorded in
// schema_migrations, so a re-run applies nothing.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
			}
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			m.version, m.name,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}

		log.Printf("🔄 Applied migration %d: %s", m.version, m.name)
	}

	return nil
}
