package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

// InsertRecurringBill adds a recurring bill template.
func (q *Queries) InsertRecurringBill(ctx context.Context, b core.RecurringBill) (int64, error) {
	var validTo any
	if b.ValidTo != nil {
		validTo = b.ValidTo.String()
	}
	active := 0
	if b.Active {
		active = 1
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO recurring_bills (name, amount_cents, valid_from, valid_to, active)
		 VALUES (?, ?, ?, ?, ?)`,
		b.Name, b.Amount.Cents, b.ValidFrom.String(), validTo, active)
	if err != nil {
		return 0, fmt.Errorf("insert recurring bill %q: %w", b.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring bill insert id: %w", err)
	}
	return id, nil
}

// ListActiveRecurringBills returns templates whose validity window
// covers the month.
func (q *Queries) ListActiveRecurringBills(ctx context.Context, monthID core.MonthID) ([]core.RecurringBill, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, valid_from, valid_to, active
		 FROM recurring_bills
		 WHERE active = 1 AND valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)
		 ORDER BY id`, monthID.String(), monthID.String())
	if err != nil {
		return nil, fmt.Errorf("list active recurring bills for %s: %w", monthID, err)
	}
	defer rows.Close()

	var out []core.RecurringBill
	for rows.Next() {
		var (
			b       core.RecurringBill
			validTo sql.NullString
			active  int64
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.ValidFrom, &validTo, &active); err != nil {
			return nil, fmt.Errorf("scan recurring bill: %w", err)
		}
		if validTo.Valid {
			to := core.MonthID(validTo.String)
			b.ValidTo = &to
		}
		b.Active = active != 0
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertMonthlyBill materializes a recurring bill into a month.
// Materializing the same (month, bill) twice is a no-op.
func (q *Queries) InsertMonthlyBill(ctx context.Context, monthID core.MonthID, bill core.RecurringBill) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO monthly_bills (month_id, recurring_bill_id, name, amount_cents, is_paid)
		 VALUES (?, ?, ?, ?, 0)`,
		monthID.String(), bill.ID, bill.Name, bill.Amount.Cents)
	if err != nil {
		return fmt.Errorf("insert monthly bill %q for %s: %w", bill.Name, monthID, err)
	}
	return nil
}

// ListMonthlyBills returns the bill instances of a month.
func (q *Queries) ListMonthlyBills(ctx context.Context, monthID core.MonthID) ([]core.MonthlyBill, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, month_id, recurring_bill_id, name, amount_cents, is_paid
		 FROM monthly_bills WHERE month_id = ? ORDER BY name`, monthID.String())
	if err != nil {
		return nil, fmt.Errorf("list monthly bills for %s: %w", monthID, err)
	}
	defer rows.Close()

	var out []core.MonthlyBill
	for rows.Next() {
		var (
			b    core.MonthlyBill
			paid int64
		)
		if err := rows.Scan(&b.ID, &b.MonthID, &b.RecurringBillID, &b.Name, &b.Amount.Cents, &paid); err != nil {
			return nil, fmt.Errorf("scan monthly bill: %w", err)
		}
		b.IsPaid = paid != 0
		out = append(out, b)
	}
	return out, rows.Err()
}
