package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cofre/internal/core"
	applog "cofre/internal/log"
)

// CreateGoal stores a new goal row.
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	now := nowText()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, name, target_cents, current_cents, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.Name, g.Target.Cents, g.Current.Cents, g.Deadline, now, now)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	logger.InfoContext(ctx, "Goal created", "id", g.ID, "name", g.Name, "target_cents", g.Target.Cents)
	return nil
}

// GetGoal retrieves a goal by ID.
func (r *SQLiteRepository) GetGoal(ctx context.Context, id uuid.UUID) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline, created_at, updated_at
		FROM goals WHERE id = ?`, id.String())

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListGoals returns all goals, newest first.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline, created_at, updated_at
		FROM goals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ApplyGoalMovement writes a goal ledger entry and the updated goal amount
// in one SQL transaction. The original design issued the two writes
// separately with no guarantee across them; SQLite gives us atomicity, so
// the pair can never diverge here.
func (r *SQLiteRepository) ApplyGoalMovement(ctx context.Context, goalID uuid.UUID, newCurrentCents int64, entry core.Transaction) error {
	entry = entry.Normalize()
	dayKey, err := core.DayKey(entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("derive day key: %w", err)
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal movement: %w", err)
	}
	defer dbtx.Rollback()

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO transactions (id, occurred_at, day_key, amount_cents, direction, category, payment_method, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.OccurredAt, dayKey, entry.Amount.Cents, string(entry.Direction),
		entry.Category, entry.PaymentMethod, entry.Description, nowText())
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	res, err := dbtx.ExecContext(ctx, `
		UPDATE goals SET current_cents = ?, updated_at = ? WHERE id = ?`,
		newCurrentCents, nowText(), goalID.String())
	if err != nil {
		return fmt.Errorf("update goal amount: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit goal movement: %w", err)
	}

	logger.InfoContext(ctx, "Goal movement applied",
		"goal_id", goalID,
		"entry_id", entry.ID,
		applog.FieldDirection, entry.Direction,
		applog.FieldAmountCents, entry.Amount.Cents,
		"new_current_cents", newCurrentCents)

	return nil
}

// DeleteGoalCascade removes a goal together with its ledger entries,
// matched by the derived description key plus the two goal-movement
// category labels.
func (r *SQLiteRepository) DeleteGoalCascade(ctx context.Context, g core.Goal) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal delete: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE description = ? AND category IN (?, ?)`,
		core.GoalDescription(g.Name), core.CategoryGoalContribution, core.CategoryGoalWithdrawal)
	if err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	ledgerDeleted, _ := res.RowsAffected()

	res, err = dbtx.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, g.ID.String())
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit goal delete: %w", err)
	}

	logger.InfoContext(ctx, "Goal deleted with ledger cascade",
		"id", g.ID,
		"name", g.Name,
		"ledger_entries_deleted", ledgerDeleted)

	return nil
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                    core.Goal
		id                   string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &g.Name, &g.Target.Cents, &g.Current.Cents, &g.Deadline, &createdAt, &updatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse goal id %q: %w", id, err)
	}
	g.ID = parsed
	g.CreatedAt = parseTimeText(createdAt)
	g.UpdatedAt = parseTimeText(updatedAt)
	return g, nil
}
