package evaluations

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo persists evaluations in Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, mode, analysis_type, provider, model, status, passage_a, passage_b, result,
       phase_completed, transcript_key, error_code, error_message,
       created_at, started_at, completed_at, updated_at
FROM evaluations`

// Create inserts a new evaluation.
func (r *PGRepo) Create(ctx context.Context, ev Evaluation) error {
	const query = `
INSERT INTO evaluations (id, mode, analysis_type, provider, model, status, passage_a, passage_b, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	_, err := r.DB.ExecContext(ctx, query,
		ev.ID,
		ev.Mode,
		ev.AnalysisType,
		ev.Provider,
		ev.Model,
		ev.Status,
		ev.PassageA,
		nullString(ev.PassageB),
		ev.CreatedAt,
	)
	return err
}

// GetByID loads a single evaluation.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Evaluation, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1::uuid`, id)
	ev, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	return ev, err
}

// Claim moves a queued or stale evaluation to processing.
func (r *PGRepo) Claim(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	const query = `
UPDATE evaluations
SET status = 'processing',
    started_at = $2::timestamptz,
    updated_at = now()
WHERE id = $1::uuid
  AND (status = 'queued' OR (status = 'processing' AND started_at < $3::timestamptz))`

	res, err := r.DB.ExecContext(ctx, query, id, startedAt, startedAt.Add(-StaleAfter))
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Finish records the terminal state of an evaluation.
func (r *PGRepo) Finish(ctx context.Context, id string, u Update) error {
	const query = `
UPDATE evaluations
SET status = COALESCE(NULLIF($1::text, ''), status),
    result = COALESCE($2::jsonb, result),
    phase_completed = COALESCE(NULLIF($3::text, ''), phase_completed),
    transcript_key = COALESCE(NULLIF($4::text, ''), transcript_key),
    error_code = COALESCE($5::text, error_code),
    error_message = COALESCE($6::text, error_message),
    completed_at = CASE
        WHEN $7::timestamptz IS NOT NULL THEN $7::timestamptz
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $8::uuid`

	var payload any
	if u.Result != nil {
		payload = []byte(u.Result)
	}
	res, err := r.DB.ExecContext(ctx, query, u.Status, payload, u.PhaseCompleted, u.TranscriptKey, u.ErrorCode, u.ErrorMessage, u.CompletedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns evaluations ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Evaluation, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (Evaluation, error) {
	var ev Evaluation
	var passageB sql.NullString
	var result []byte
	var phaseCompleted sql.NullString
	var transcriptKey sql.NullString
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	if err := row.Scan(
		&ev.ID,
		&ev.Mode,
		&ev.AnalysisType,
		&ev.Provider,
		&ev.Model,
		&ev.Status,
		&ev.PassageA,
		&passageB,
		&result,
		&phaseCompleted,
		&transcriptKey,
		&errorCode,
		&errorMessage,
		&ev.CreatedAt,
		&startedAt,
		&completedAt,
		&ev.UpdatedAt,
	); err != nil {
		return Evaluation{}, err
	}
	ev.PassageB = passageB.String
	if len(result) > 0 {
		ev.Result = append([]byte(nil), result...)
	}
	ev.PhaseCompleted = phaseCompleted.String
	ev.TranscriptKey = transcriptKey.String
	if errorCode.Valid {
		ev.ErrorCode = &errorCode.String
	}
	if errorMessage.Valid {
		ev.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		ev.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		ev.CompletedAt = &completedAt.Time
	}
	return ev, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
