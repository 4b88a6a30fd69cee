package storage

import (
	"context"
	"fmt"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

// InitStatistic seeds a zeroed open statistic row. Re-running for an
// existing bucket is a no-op.
func (q *Queries) InitStatistic(ctx context.Context, monthID core.MonthID, category, subcategory string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO statistics (month_id, category, subcategory, amount_cents, is_open)
		 VALUES (?, ?, ?, 0, 1)`, monthID.String(), category, subcategory)
	if err != nil {
		return fmt.Errorf("init statistic %s/%s/%s: %w", monthID, category, subcategory, err)
	}
	return nil
}

// AddToStatistic applies a signed delta to a statistic bucket, creating
// it if the month was initialized before the category existed.
func (q *Queries) AddToStatistic(ctx context.Context, monthID core.MonthID, category, subcategory string, deltaCents int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO statistics (month_id, category, subcategory, amount_cents, is_open)
		 VALUES (?, ?, ?, ?, (SELECT CASE WHEN m.is_closed THEN 0 ELSE 1 END FROM months m WHERE m.id = ?))
		 ON CONFLICT(month_id, category, subcategory)
		 DO UPDATE SET amount_cents = amount_cents + excluded.amount_cents`,
		monthID.String(), category, subcategory, deltaCents, monthID.String())
	if err != nil {
		return fmt.Errorf("add to statistic %s/%s/%s: %w", monthID, category, subcategory, err)
	}
	return nil
}

// SetStatisticsOpen rewrites every statistic row's open flag for a
// month. Mirrors the month's lifecycle transition.
func (q *Queries) SetStatisticsOpen(ctx context.Context, monthID core.MonthID, open bool) error {
	v := 0
	if open {
		v = 1
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE statistics SET is_open = ? WHERE month_id = ?`, v, monthID.String())
	if err != nil {
		return fmt.Errorf("set statistics open=%v for %s: %w", open, monthID, err)
	}
	return nil
}

// ListStatistics returns a month's statistic rows.
func (q *Queries) ListStatistics(ctx context.Context, monthID core.MonthID) ([]core.Statistic, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT month_id, category, subcategory, amount_cents, is_open
		 FROM statistics WHERE month_id = ? ORDER BY category, subcategory`, monthID.String())
	if err != nil {
		return nil, fmt.Errorf("list statistics for %s: %w", monthID, err)
	}
	defer rows.Close()

	var out []core.Statistic
	for rows.Next() {
		var (
			s    core.Statistic
			open int64
		)
		if err := rows.Scan(&s.MonthID, &s.Category, &s.Subcategory, &s.Amount.Cents, &open); err != nil {
			return nil, fmt.Errorf("scan statistic: %w", err)
		}
		s.IsOpen = open != 0
		out = append(out, s)
	}
	return out, rows.Err()
}
