// Package language is the read-mostly catalog of runnable
// language/toolchain descriptors (spec.md section 2 item 7, section 3).
// Backed by PostgreSQL via database/sql + lib/pq, grounded on
// wilke-cwe-cwl's cmd/cwe-scheduler database wiring; the per-entry
// version bookkeeping is grounded on the teacher's runtime.Manager,
// which resolves/compares versions with Masterminds/semver.
package language

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coderunr/judge/internal/apierr"
	"github.com/coderunr/judge/internal/types"
)

// Repository is the Postgres-backed language catalog store.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open *sql.DB. Callers own the connection's
// lifecycle (sql.Open in cmd/server and cmd/worker).
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, name, version, file_name, file_extension, compile_command, run_command, created_at, updated_at`

// GetByID fetches a single language by its catalog id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*types.Language, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM languages WHERE id = $1`, id)
	lang, err := scanLanguage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NewNotFoundError("language", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get language %d: %w", id, err)
	}
	return lang, nil
}

// List returns the full catalog ordered by name then version.
func (r *Repository) List(ctx context.Context) ([]types.Language, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM languages ORDER BY name, version`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var out []types.Language
	for rows.Next() {
		lang, err := scanLanguage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan language row: %w", err)
		}
		out = append(out, *lang)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLanguage(row rowScanner) (*types.Language, error) {
	var l types.Language
	var compileCommand sql.NullString
	if err := row.Scan(&l.ID, &l.Name, &l.Version, &l.FileName, &l.FileExtension,
		&compileCommand, &l.RunCommand, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if compileCommand.Valid {
		l.CompileCommand = &compileCommand.String
	}
	return &l, nil
}

// Upsert inserts or updates a catalog entry by (name, version), used by
// Seed to make catalog seeding idempotent across restarts.
func (r *Repository) Upsert(ctx context.Context, l types.Language) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO languages (name, version, file_name, file_extension, compile_command, run_command, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (name, version) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			file_extension = EXCLUDED.file_extension,
			compile_command = EXCLUDED.compile_command,
			run_command = EXCLUDED.run_command,
			updated_at = now()
	`, l.Name, l.Version, l.FileName, l.FileExtension, l.CompileCommand, l.RunCommand)
	if err != nil {
		return fmt.Errorf("upsert language %s-%s: %w", l.Name, l.Version, err)
	}
	return nil
}
