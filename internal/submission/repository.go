// Package submission implements the submission lifecycle: the durable
// repository (Postgres via database/sql + lib/pq, grounded on
// wilke-cwe-cwl's cmd/cwe-scheduler sql.Open("postgres", ...) wiring)
// and the CAS state machine described in spec.md section 3/5, mirroring
// original_source/server/app/repositories/submission_repository.py's
// update().where(status == PENDING) pattern but enforced at the SQL
// layer with RowsAffected instead of assumed by the caller.
package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coderunr/judge/internal/apierr"
	"github.com/coderunr/judge/internal/types"
	"github.com/google/uuid"
)

// Repository is the Postgres-backed submission store.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open *sql.DB.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `id, source_code, language_id, stdin, additional_files, expected_output,
	cpu_time_limit, cpu_extra_time, wall_time_limit, memory_limit,
	max_processes_and_or_threads, max_file_size, number_of_runs,
	enable_per_process_and_thread_time_limit, enable_per_process_and_thread_memory_limit,
	redirect_stderr_to_stdout, enable_network,
	status, stdout, stderr, compile_output, meta, created_at`

// Create inserts a new submission in PENDING status, assigning it a
// fresh UUID.
func (r *Repository) Create(ctx context.Context, sub *types.Submission) error {
	sub.ID = uuid.New()
	sub.Status = types.StatusPending

	filesJSON, err := json.Marshal(sub.AdditionalFiles)
	if err != nil {
		return fmt.Errorf("marshal additional_files: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO submissions (
			id, source_code, language_id, stdin, additional_files, expected_output,
			cpu_time_limit, cpu_extra_time, wall_time_limit, memory_limit,
			max_processes_and_or_threads, max_file_size, number_of_runs,
			enable_per_process_and_thread_time_limit, enable_per_process_and_thread_memory_limit,
			redirect_stderr_to_stdout, enable_network,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now())
		RETURNING created_at
	`,
		sub.ID, sub.SourceCode, sub.LanguageID, sub.Stdin, filesJSON, sub.ExpectedOutput,
		sub.CPUTimeLimit, sub.CPUExtraTime, sub.WallTimeLimit, sub.MemoryLimit,
		sub.MaxProcessesAndOrThreads, sub.MaxFileSize, sub.NumberOfRuns,
		sub.EnablePerProcessAndThreadTimeLimit, sub.EnablePerProcessAndThreadMemory,
		sub.RedirectStderrToStdout, sub.EnableNetwork,
		sub.Status,
	)
	if err := row.Scan(&sub.CreatedAt); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// CreateBatch inserts many submissions in one transaction, assigning
// each its ID and PENDING status in place; nothing is committed if any
// insert fails.
func (r *Repository) CreateBatch(ctx context.Context, subs []*types.Submission) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch create: %w", err)
	}
	defer tx.Rollback()

	for _, sub := range subs {
		sub.ID = uuid.New()
		sub.Status = types.StatusPending
		filesJSON, err := json.Marshal(sub.AdditionalFiles)
		if err != nil {
			return fmt.Errorf("marshal additional_files: %w", err)
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO submissions (
				id, source_code, language_id, stdin, additional_files, expected_output,
				cpu_time_limit, cpu_extra_time, wall_time_limit, memory_limit,
				max_processes_and_or_threads, max_file_size, number_of_runs,
				enable_per_process_and_thread_time_limit, enable_per_process_and_thread_memory_limit,
				redirect_stderr_to_stdout, enable_network,
				status, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now())
			RETURNING created_at
		`,
			sub.ID, sub.SourceCode, sub.LanguageID, sub.Stdin, filesJSON, sub.ExpectedOutput,
			sub.CPUTimeLimit, sub.CPUExtraTime, sub.WallTimeLimit, sub.MemoryLimit,
			sub.MaxProcessesAndOrThreads, sub.MaxFileSize, sub.NumberOfRuns,
			sub.EnablePerProcessAndThreadTimeLimit, sub.EnablePerProcessAndThreadMemory,
			sub.RedirectStderrToStdout, sub.EnableNetwork,
			sub.Status,
		)
		if err := row.Scan(&sub.CreatedAt); err != nil {
			return fmt.Errorf("create submission in batch: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID fetches a submission, or a NotFoundError if it doesn't exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*types.Submission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NewNotFoundError("submission", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	return sub, nil
}

// GetByIDs fetches several submissions, silently skipping ids that
// don't exist (batch get is best-effort per spec.md's external
// interface table).
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]types.Submission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM submissions WHERE id = ANY($1)`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("get submissions by ids: %w", err)
	}
	defer rows.Close()

	var out []types.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

// List returns a page of submissions ordered by creation time, plus the
// total row count for pagination.
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]types.Submission, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM submissions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM submissions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []types.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan submission row: %w", err)
		}
		out = append(out, *sub)
	}
	return out, total, rows.Err()
}

// Delete removes a submission by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete submission %s: %w", id, err)
	}
	if n == 0 {
		return apierr.NewNotFoundError("submission", id.String())
	}
	return nil
}

// ClaimForProcessing performs the CAS transition PENDING -> PROCESSING
// (spec.md section 5). Returns false, nil if another worker already
// claimed it (0 rows affected) rather than treating that as an error.
func (r *Repository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET status = $1 WHERE id = $2 AND status = $3`,
		types.StatusProcessing, id, types.StatusPending)
	if err != nil {
		return false, fmt.Errorf("claim submission %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim submission %s: %w", id, err)
	}
	return n == 1, nil
}

// FinishResult is the terminal payload the Processor writes back to a
// claimed submission (spec.md section 4.2/5).
type FinishResult struct {
	Status        types.SubmissionStatus
	Stdout        *string
	Stderr        *string
	CompileOutput *string
	Meta          map[string]string
}

// Finish persists the terminal state for a submission the caller
// already holds the PROCESSING claim on.
func (r *Repository) Finish(ctx context.Context, id uuid.UUID, result FinishResult) error {
	metaJSON, err := json.Marshal(result.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE submissions SET status = $1, stdout = $2, stderr = $3, compile_output = $4, meta = $5
		WHERE id = $6
	`, result.Status, result.Stdout, result.Stderr, result.CompileOutput, metaJSON, id)
	if err != nil {
		return fmt.Errorf("finish submission %s: %w", id, err)
	}
	return nil
}

func uuidArray(ids []uuid.UUID) string {
	out := "{"
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id.String()
	}
	return out + "}"
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*types.Submission, error) {
	var s types.Submission
	var filesJSON, metaJSON []byte
	if err := row.Scan(
		&s.ID, &s.SourceCode, &s.LanguageID, &s.Stdin, &filesJSON, &s.ExpectedOutput,
		&s.CPUTimeLimit, &s.CPUExtraTime, &s.WallTimeLimit, &s.MemoryLimit,
		&s.MaxProcessesAndOrThreads, &s.MaxFileSize, &s.NumberOfRuns,
		&s.EnablePerProcessAndThreadTimeLimit, &s.EnablePerProcessAndThreadMemory,
		&s.RedirectStderrToStdout, &s.EnableNetwork,
		&s.Status, &s.Stdout, &s.Stderr, &s.CompileOutput, &metaJSON, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &s.AdditionalFiles); err != nil {
			return nil, fmt.Errorf("unmarshal additional_files: %w", err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &s.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	return &s, nil
}
