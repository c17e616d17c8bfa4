package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spaolacci/murmur3"

	"github.com/gridframe/gridframe/pkg/frame"
)

// ErrTemplateNotFound is returned when the catalog has no template with the
// requested name.
var ErrTemplateNotFound = errors.New("store: template not found")

// Template represents a named frame definition stored in the catalog.
type Template struct {
	ID          int64
	Name        string
	Def         *frame.Def
	Fingerprint int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Catalog stores named frame definitions in catalog.db. Definitions are kept
// as JSON and rebuilt through frame.Def on the way out, so a row that decodes
// but no longer forms a coherent definition surfaces the same tagged errors
// as direct construction.
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // Write-only lock (reads don't need this)

	getTemplateStmt *sql.Stmt
}

// NewCatalog opens (creating if necessary) a SQLite-based template catalog.
func NewCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: failed to open catalog database: %w", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)

	catalog := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if err := catalog.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to initialize catalog schema: %w", err)
	}

	getStmt, err := db.Prepare(`
		SELECT id, name, definition, fingerprint, created_at, updated_at
		FROM templates
		WHERE name = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to prepare get statement: %w", err)
	}
	catalog.getTemplateStmt = getStmt

	return catalog, nil
}

// initSchema creates all required tables.
func (c *Catalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// SaveTemplate stores a definition under the given name, replacing any
// previous definition with that name. A save whose definition matches the
// stored fingerprint is a no-op, so repeated saves of an unchanged schema
// do not touch updated_at.
func (c *Catalog) SaveTemplate(ctx context.Context, name string, def *frame.Def) error {
	if name == "" {
		return fmt.Errorf("store: template name is required")
	}
	if def == nil {
		return fmt.Errorf("store: template definition is required")
	}

	defJSON, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("store: failed to marshal definition for template %q: %w", name, err)
	}
	fp := fingerprint(defJSON)

	c.mu.Lock()
	defer c.mu.Unlock()

	var existing int64
	err = c.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM templates WHERE name = ?", name,
	).Scan(&existing)

	now := time.Now().Unix()

	switch {
	case err == nil:
		if existing == fp {
			return nil
		}
		_, err = c.db.ExecContext(ctx,
			"UPDATE templates SET definition = ?, fingerprint = ?, updated_at = ? WHERE name = ?",
			string(defJSON), fp, now, name,
		)
		if err != nil {
			return fmt.Errorf("store: failed to update template %q: %w", name, err)
		}
	case err == sql.ErrNoRows:
		_, err = c.db.ExecContext(ctx,
			"INSERT INTO templates (name, definition, fingerprint, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			name, string(defJSON), fp, now, now,
		)
		if err != nil {
			return fmt.Errorf("store: failed to insert template %q: %w", name, err)
		}
	default:
		return fmt.Errorf("store: failed to check template %q: %w", name, err)
	}

	return nil
}

// GetTemplate retrieves a template by name. The stored definition is rebuilt
// column by column, so construction errors (for example a duplicate column
// name written by an older version) propagate to the caller.
func (c *Catalog) GetTemplate(ctx context.Context, name string) (*Template, error) {
	row := c.getTemplateStmt.QueryRowContext(ctx, name)
	return scanTemplate(row.Scan, name)
}

// ListTemplates returns all templates ordered by name.
func (c *Catalog) ListTemplates(ctx context.Context) ([]*Template, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, definition, fingerprint, created_at, updated_at
		FROM templates
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows.Scan, "")
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating templates: %w", err)
	}

	return templates, nil
}

// DeleteTemplate removes a template by name.
func (c *Catalog) DeleteTemplate(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM templates WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("store: failed to delete template %q: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to delete template %q: %w", name, err)
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// Close closes the catalog database connection.
func (c *Catalog) Close() error {
	if c.getTemplateStmt != nil {
		c.getTemplateStmt.Close()
	}
	return c.db.Close()
}

// scanTemplate scans one templates row. name is used for error context only
// and may be empty when scanning list results.
func scanTemplate(scan func(dest ...any) error, name string) (*Template, error) {
	var tmpl Template
	var defJSON string
	var createdAtUnix, updatedAtUnix int64

	err := scan(&tmpl.ID, &tmpl.Name, &defJSON, &tmpl.Fingerprint, &createdAtUnix, &updatedAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("store: failed to scan template: %w", err)
	}
	if name == "" {
		name = tmpl.Name
	}

	def := &frame.Def{}
	if err := json.Unmarshal([]byte(defJSON), def); err != nil {
		return nil, fmt.Errorf("store: failed to decode definition for template %q: %w", name, err)
	}
	tmpl.Def = def

	tmpl.CreatedAt = time.Unix(createdAtUnix, 0)
	tmpl.UpdatedAt = time.Unix(updatedAtUnix, 0)
	return &tmpl, nil
}

// fingerprint hashes a canonical definition document for cheap change checks.
func fingerprint(defJSON []byte) int64 {
	return int64(murmur3.Sum64(defJSON))
}
