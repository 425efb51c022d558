package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// StartRun inserts a run row.
func (s *SQLiteStorage) StartRun(ctx context.Context, run model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, dry_run, started_at, loaded)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.DryRun, run.StartedAt, run.Loaded)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			loaded = ?,
			added = ?,
			matched = ?,
			marked_for_review = ?,
			failed = ?,
			error = ?
		WHERE id = ?
	`,
		nullTime(run.FinishedAt),
		run.Loaded,
		run.Counters.Added,
		run.Counters.Matched,
		run.Counters.MarkedForReview,
		run.Counters.Failed,
		nullString(run.Error),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check run update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// RecordResult stores the decision and outcome for one transaction of a run.
func (s *SQLiteStorage) RecordResult(ctx context.Context, runID string, result model.RunResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	txn := result.Transaction
	var (
		category, decisionAction, source, reason sql.NullString
		confidence                               sql.NullFloat64
	)
	if d := result.Decision; d != nil {
		category = nullString(d.Category)
		decisionAction = nullString(string(d.Action))
		source = nullString(string(d.Source))
		reason = nullString(d.Reason)
		confidence = sql.NullFloat64{Float64: d.Confidence, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_results (
			run_id, position, date, description, payee, spent, received,
			row_handle, fingerprint, category, confidence, decision_action,
			decision_source, reason, outcome, outcome_action, tier, outcome_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		result.Position,
		txn.Date,
		txn.Description,
		txn.Payee,
		txn.Spent,
		txn.Received,
		txn.RowHandle,
		txn.Fingerprint(),
		category,
		confidence,
		decisionAction,
		source,
		reason,
		string(result.Outcome.Status),
		nullString(string(result.Outcome.Action)),
		nullString(string(result.Outcome.Tier)),
		nullString(result.Outcome.Reason),
	)
	if err != nil {
		return fmt.Errorf("failed to save run result: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, dry_run, started_at, finished_at, loaded,
		       added, matched, marked_for_review, failed, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return model.Run{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, dry_run, started_at, finished_at, loaded,
		       added, matched, marked_for_review, failed, error
		FROM runs WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// GetRunResults returns the per-transaction results of a run in feed order.
func (s *SQLiteStorage) GetRunResults(ctx context.Context, runID string) ([]model.RunResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, date, description, payee, spent, received, row_handle,
		       category, confidence, decision_action, decision_source, reason,
		       outcome, outcome_action, tier, outcome_reason
		FROM run_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.RunResult
	for rows.Next() {
		var (
			r                                                 model.RunResult
			date, description, payee, spent, received, handle sql.NullString
			category, decisionAction, source, reason          sql.NullString
			outcomeAction, tier, outcomeReason                sql.NullString
			confidence                                        sql.NullFloat64
			outcome                                           string
		)
		if err := rows.Scan(&r.Position, &date, &description, &payee, &spent, &received, &handle,
			&category, &confidence, &decisionAction, &source, &reason,
			&outcome, &outcomeAction, &tier, &outcomeReason); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}

		r.Transaction = model.BankTransaction{
			Date:        date.String,
			Description: description.String,
			Payee:       payee.String,
			Spent:       spent.String,
			Received:    received.String,
			RowHandle:   handle.String,
		}
		if category.Valid {
			r.Decision = &model.Decision{
				Category:   category.String,
				Confidence: confidence.Float64,
				Action:     model.Action(decisionAction.String),
				Source:     model.DecisionSource(source.String),
				Reason:     reason.String,
			}
		}
		r.Outcome = model.Outcome{
			Status: model.OutcomeStatus(outcome),
			Action: model.Action(outcomeAction.String),
			Tier:   model.Tier(tier.String),
			Reason: outcomeReason.String,
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run results: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.Run, error) {
	var (
		run        model.Run
		source     sql.NullString
		runErr     sql.NullString
		finishedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &source, &run.DryRun, &run.StartedAt, &finishedAt, &run.Loaded,
		&run.Counters.Added, &run.Counters.Matched, &run.Counters.MarkedForReview, &run.Counters.Failed, &runErr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Source = source.String
	run.Error = runErr.String
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return run, nil
}
