package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

// GetMonth fetches one month row.
func (q *Queries) GetMonth(ctx context.Context, id core.MonthID) (core.Month, error) {
	var (
		m      core.Month
		closed int64
		budget sql.NullInt64
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, is_closed, budget_cents FROM months WHERE id = ?`, id.String(),
	).Scan(&m.ID, &closed, &budget)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Month{}, ErrNotFound
	}
	if err != nil {
		return core.Month{}, fmt.Errorf("get month %s: %w", id, err)
	}
	m.IsClosed = closed != 0
	if budget.Valid {
		m.Budget = &core.Money{Cents: budget.Int64}
	}
	return m, nil
}

// InsertMonth creates the month row itself; the surrounding lifecycle
// logic seeds statistics, openings, and bills.
func (q *Queries) InsertMonth(ctx context.Context, id core.MonthID) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO months (id, is_closed) VALUES (?, 0)`, id.String())
	if err != nil {
		return fmt.Errorf("insert month %s: %w", id, err)
	}
	return nil
}

// SetMonthClosed flips the month's lifecycle flag.
func (q *Queries) SetMonthClosed(ctx context.Context, id core.MonthID, closed bool) error {
	v := 0
	if closed {
		v = 1
	}
	res, err := q.db.ExecContext(ctx, `UPDATE months SET is_closed = ? WHERE id = ?`, v, id.String())
	if err != nil {
		return fmt.Errorf("set month %s closed=%v: %w", id, closed, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set month %s closed: %w", id, ErrNotFound)
	}
	return nil
}

// SetMonthBudget sets or clears the month's budget.
func (q *Queries) SetMonthBudget(ctx context.Context, id core.MonthID, budgetCents *int64) error {
	var v any
	if budgetCents != nil {
		v = *budgetCents
	}
	res, err := q.db.ExecContext(ctx, `UPDATE months SET budget_cents = ? WHERE id = ?`, v, id.String())
	if err != nil {
		return fmt.Errorf("set month %s budget: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set month %s budget: %w", id, ErrNotFound)
	}
	return nil
}

// ListMonths returns all months, newest first.
func (q *Queries) ListMonths(ctx context.Context) ([]core.Month, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, is_closed, budget_cents FROM months ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	defer rows.Close()

	var out []core.Month
	for rows.Next() {
		var (
			m      core.Month
			closed int64
			budget sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &closed, &budget); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		m.IsClosed = closed != 0
		if budget.Valid {
			m.Budget = &core.Money{Cents: budget.Int64}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertMonthOpening writes (or rewrites) the carry-forward snapshot
// for an account and month.
func (q *Queries) UpsertMonthOpening(ctx context.Context, accountID int64, id core.MonthID, openingCents int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO month_openings (account_id, month_id, opening_balance_cents)
		 VALUES (?, ?, ?)
		 ON CONFLICT(account_id, month_id) DO UPDATE SET opening_balance_cents = excluded.opening_balance_cents`,
		accountID, id.String(), openingCents)
	if err != nil {
		return fmt.Errorf("upsert month opening %s/%d: %w", id, accountID, err)
	}
	return nil
}

// GetMonthOpening reads one carry-forward snapshot.
func (q *Queries) GetMonthOpening(ctx context.Context, accountID int64, id core.MonthID) (core.MonthOpening, error) {
	var o core.MonthOpening
	err := q.db.QueryRowContext(ctx,
		`SELECT account_id, month_id, opening_balance_cents
		 FROM month_openings WHERE account_id = ? AND month_id = ?`,
		accountID, id.String(),
	).Scan(&o.AccountID, &o.MonthID, &o.Opening.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthOpening{}, ErrNotFound
	}
	if err != nil {
		return core.MonthOpening{}, fmt.Errorf("get month opening %s/%d: %w", id, accountID, err)
	}
	return o, nil
}
