package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/toolgate/toolgate/pkg/tool"
)

// SQLiteProvider stores descriptors in SQLite with an FTS5 companion table
// for ranked full-text search.
type SQLiteProvider struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteProvider opens (or creates) the catalog database at path.
// Use ":memory:" for an ephemeral catalog.
func NewSQLiteProvider(path string, logger zerolog.Logger) (*SQLiteProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog database path is required")
	}

	db, err := sql.Open("sqlite3", path+"?_fts5=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	// WAL gives readers a consistent view while a rebuild is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	p := &SQLiteProvider{db: db, logger: logger}
	if err := p.EnsureIndex(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return p, nil
}

// EnsureIndex creates the descriptor tables if absent.
func (p *SQLiteProvider) EnsureIndex(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS descriptors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			plugin_id TEXT NOT NULL,
			description TEXT NOT NULL,
			invocation_path TEXT NOT NULL,
			parameters TEXT NOT NULL,
			response_type TEXT,
			is_active INTEGER NOT NULL,
			last_updated INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_descriptors_name ON descriptors(name);

		CREATE VIRTUAL TABLE IF NOT EXISTS descriptors_fts USING fts5(
			descriptor_id UNINDEXED,
			name,
			description,
			plugin_id,
			invocation_path,
			parameters,
			tokenize='porter unicode61'
		);
	`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: failed to create catalog schema: %v", ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether the descriptor table has been created.
func (p *SQLiteProvider) Exists(ctx context.Context) (bool, error) {
	var name string
	err := p.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='descriptors'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}

// DeleteAll removes every descriptor and its search rows.
func (p *SQLiteProvider) DeleteAll(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM descriptors"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM descriptors_fts"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Upload stores a batch of descriptors in one transaction.
func (p *SQLiteProvider) Upload(ctx context.Context, descriptors []tool.Descriptor) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	for _, d := range descriptors {
		params, err := json.Marshal(d.Parameters)
		if err != nil {
			return fmt.Errorf("failed to encode parameters for %s: %w", d.Name, err)
		}

		active := 0
		if d.IsActive {
			active = 1
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO descriptors
				(id, name, plugin_id, description, invocation_path, parameters, response_type, is_active, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.PluginID, d.Description, d.InvocationPath,
			string(params), d.ResponseType, active, d.LastUpdated.UnixMilli(),
		); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO descriptors_fts
				(descriptor_id, name, description, plugin_id, invocation_path, parameters)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.Description, d.PluginID, d.InvocationPath, searchableParameters(d.Parameters),
		); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p.logger.Debug().Int("count", len(descriptors)).Msg("Descriptors uploaded to catalog")
	return nil
}

// Search runs an FTS5 match ranked by bm25.
func (p *SQLiteProvider) Search(ctx context.Context, query string) ([]tool.Descriptor, error) {
	match := buildMatchExpression(query)
	if match == "" {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.plugin_id, d.description, d.invocation_path,
		       d.parameters, d.response_type, d.is_active, d.last_updated
		FROM descriptors_fts f
		JOIN descriptors d ON d.id = f.descriptor_id
		WHERE descriptors_fts MATCH ?
		ORDER BY bm25(descriptors_fts)
	`, match)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	return scanDescriptors(rows)
}

// GetAll returns every descriptor, ordered by name for determinism.
func (p *SQLiteProvider) GetAll(ctx context.Context) ([]tool.Descriptor, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, plugin_id, description, invocation_path,
		       parameters, response_type, is_active, last_updated
		FROM descriptors
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	return scanDescriptors(rows)
}

// Close closes the underlying database.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

func scanDescriptors(rows *sql.Rows) ([]tool.Descriptor, error) {
	var out []tool.Descriptor
	for rows.Next() {
		var (
			d            tool.Descriptor
			params       string
			responseType sql.NullString
			active       int
			updatedMs    int64
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.PluginID, &d.Description, &d.InvocationPath,
			&params, &responseType, &active, &updatedMs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		if params != "" {
			if err := json.Unmarshal([]byte(params), &d.Parameters); err != nil {
				return nil, fmt.Errorf("failed to decode parameters for %s: %w", d.Name, err)
			}
		}
		d.ResponseType = responseType.String
		d.IsActive = active == 1
		d.LastUpdated = time.UnixMilli(updatedMs)

		out = append(out, d)
	}
	return out, rows.Err()
}

// buildMatchExpression turns free text into a safe FTS5 match expression.
// Raw user input cannot be passed to MATCH directly: operators and
// punctuation are FTS5 syntax.
func buildMatchExpression(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}

	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func searchableParameters(params []tool.Parameter) string {
	var parts []string
	for _, p := range params {
		parts = append(parts, p.Name, p.Description)
	}
	return strings.Join(parts, " ")
}
