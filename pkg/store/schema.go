package store

// Schema contains the SQL schema definitions for the template catalog
// (catalog.db). The catalog is a SQLite database that serves as the source
// of truth for named frame definitions.

// CreateTemplatesTableSQL creates the templates table. Each row stores one
// named frame definition as JSON, together with a fingerprint of that JSON
// so unchanged saves can be skipped without comparing documents. The UNIQUE
// constraint on name doubles as the lookup index.
const CreateTemplatesTableSQL = `
CREATE TABLE IF NOT EXISTS templates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    definition TEXT NOT NULL,
    fingerprint INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
)`

// AllSchemaSQL returns all SQL statements needed to initialize the catalog.
func AllSchemaSQL() []string {
	return []string{
		CreateTemplatesTableSQL,
	}
}
