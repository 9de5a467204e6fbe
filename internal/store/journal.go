package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Workflow journal states.
const (
	WorkflowSubmitted = "submitted"
	WorkflowSucceeded = "succeeded"
	WorkflowFailed    = "failed"
)

// CounterExecutions counts completed device executions.
const CounterExecutions = "executions"

// WorkflowEntry is one journaled submission.
type WorkflowEntry struct {
	ID          string
	Filename    string
	State       string
	SubmittedAt time.Time
	FinishedAt  time.Time
}

// RecordWorkflow journals a submission. Duplicate ids are silently
// ignored for idempotency.
func (s *Store) RecordWorkflow(ctx context.Context, id, filename string, submittedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, filename, state, submitted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, filename, WorkflowSubmitted, submittedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record workflow: %w", err)
	}
	return nil
}

// FinishWorkflow marks a journaled workflow terminal.
func (s *Store) FinishWorkflow(ctx context.Context, id, state string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflows
		SET state = ?, finished_at = ?
		WHERE id = ?
	`, state, finishedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("finish workflow: %w", err)
	}
	return nil
}

// Workflow retrieves one journal entry.
// Returns sql.ErrNoRows if not found.
func (s *Store) Workflow(ctx context.Context, id string) (WorkflowEntry, error) {
	var entry WorkflowEntry
	var submittedAt int64
	var finishedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, state, submitted_at, finished_at
		FROM workflows
		WHERE id = ?
	`, id).Scan(&entry.ID, &entry.Filename, &entry.State, &submittedAt, &finishedAt)
	if err != nil {
		return WorkflowEntry{}, err
	}

	entry.SubmittedAt = time.UnixMilli(submittedAt)
	if finishedAt.Valid {
		entry.FinishedAt = time.UnixMilli(finishedAt.Int64)
	}
	return entry, nil
}

// LatestWorkflowID returns the most recently submitted workflow id, or
// an empty string when the journal is empty.
func (s *Store) LatestWorkflowID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM workflows
		ORDER BY submitted_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest workflow: %w", err)
	}
	return id, nil
}

// Filenames returns every journaled workflow filename in submission
// order.
func (s *Store) Filenames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename FROM workflows
		ORDER BY submitted_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("filenames: %w", err)
	}
	defer rows.Close()

	filenames := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("filenames: scan: %w", err)
		}
		filenames = append(filenames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filenames: %w", err)
	}
	return filenames, nil
}

// IncrementCounter bumps a named counter, creating it at 1 on first use.
func (s *Store) IncrementCounter(ctx context.Context, name string) error {
	return s.AddCounter(ctx, name, 1)
}

// AddCounter adds delta to a named counter, creating it on first use.
func (s *Store) AddCounter(ctx context.Context, name string, delta int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = value + excluded.value
	`, name, delta)
	if err != nil {
		return fmt.Errorf("add counter: %w", err)
	}
	return nil
}

// Counter returns a named counter's value; missing counters read as 0.
func (s *Store) Counter(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM counters WHERE name = ?
	`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counter: %w", err)
	}
	return value, nil
}
