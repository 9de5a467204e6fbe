package store

import (
	"context"
	"fmt"
	"time"
)

// ResultEntry is one cached job result: the raw payload a workflow step
// produced, keyed by the job's fingerprint.
type ResultEntry struct {
	Fingerprint string
	WorkflowID  string
	StepName    string
	Payload     []byte
	CreatedAt   time.Time
}

// PutResult inserts a result for a fingerprint.
// Uses ON CONFLICT(fingerprint) DO NOTHING: a fingerprint is write-once,
// so concurrent pollers race safely and the first insert wins. Returns
// whether this call inserted the row.
func (s *Store) PutResult(ctx context.Context, entry ResultEntry) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO results
		(fingerprint, workflow_id, step_name, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		entry.Fingerprint,
		entry.WorkflowID,
		entry.StepName,
		entry.Payload,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("put result: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put result: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetResult retrieves the cached result for a fingerprint.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetResult(ctx context.Context, fingerprint string) (ResultEntry, error) {
	var entry ResultEntry
	var createdAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, workflow_id, step_name, payload, created_at
		FROM results
		WHERE fingerprint = ?
	`, fingerprint).Scan(
		&entry.Fingerprint,
		&entry.WorkflowID,
		&entry.StepName,
		&entry.Payload,
		&createdAt,
	)
	if err != nil {
		return ResultEntry{}, err
	}

	entry.CreatedAt = time.UnixMilli(createdAt)
	return entry, nil
}
