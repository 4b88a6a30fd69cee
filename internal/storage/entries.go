package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

const entryColumns = `e.id, e.month_id, e.account_id, a.name, e.category_id, e.subcategory_id,
	e.type, e.amount_cents, e.description, e.extra_description, e.entry_date,
	e.transfer_group_id, e.direction, e.parent_entry_id`

type entryScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s entryScanner) (core.Entry, error) {
	var (
		e        core.Entry
		catID    sql.NullInt64
		subID    sql.NullInt64
		date     string
		group    sql.NullString
		dir      sql.NullString
		parentID sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.MonthID, &e.AccountID, &e.Account, &catID, &subID,
		&e.Type, &e.Amount.Cents, &e.Description, &e.ExtraDescription, &date,
		&group, &dir, &parentID)
	if err != nil {
		return core.Entry{}, err
	}
	if catID.Valid {
		e.CategoryID = &catID.Int64
	}
	if subID.Valid {
		e.SubcategoryID = &subID.Int64
	}
	if group.Valid {
		e.TransferGroupID = group.String
	}
	if dir.Valid {
		e.Direction = core.TransferDirection(dir.String)
	}
	if parentID.Valid {
		e.ParentEntryID = &parentID.Int64
	}
	if d, err := core.ParseDate(date); err == nil {
		e.Date = d
	}
	return e, nil
}

// InsertEntry stores one movement and returns its id.
func (q *Queries) InsertEntry(ctx context.Context, e core.Entry) (int64, error) {
	var group, dir any
	if e.TransferGroupID != "" {
		group = e.TransferGroupID
	}
	if e.Direction != "" {
		dir = string(e.Direction)
	}
	var catID, subID, parentID any
	if e.CategoryID != nil {
		catID = *e.CategoryID
	}
	if e.SubcategoryID != nil {
		subID = *e.SubcategoryID
	}
	if e.ParentEntryID != nil {
		parentID = *e.ParentEntryID
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO entries (month_id, account_id, category_id, subcategory_id, type, amount_cents,
		                      description, extra_description, entry_date, transfer_group_id, direction,
		                      parent_entry_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MonthID.String(), e.AccountID, catID, subID, string(e.Type), e.Amount.Cents,
		e.Description, e.ExtraDescription, core.FormatDate(e.Date), group, dir,
		parentID, timestamp())
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry insert id: %w", err)
	}
	return id, nil
}

// GetEntry fetches one entry by id.
func (q *Queries) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// UpdateEntry rewrites a stored entry in place.
func (q *Queries) UpdateEntry(ctx context.Context, e core.Entry) error {
	var group, dir any
	if e.TransferGroupID != "" {
		group = e.TransferGroupID
	}
	if e.Direction != "" {
		dir = string(e.Direction)
	}
	var catID, subID, parentID any
	if e.CategoryID != nil {
		catID = *e.CategoryID
	}
	if e.SubcategoryID != nil {
		subID = *e.SubcategoryID
	}
	if e.ParentEntryID != nil {
		parentID = *e.ParentEntryID
	}

	res, err := q.db.ExecContext(ctx,
		`UPDATE entries SET month_id = ?, account_id = ?, category_id = ?, subcategory_id = ?,
		        type = ?, amount_cents = ?, description = ?, extra_description = ?, entry_date = ?,
		        transfer_group_id = ?, direction = ?, parent_entry_id = ?, updated_at = ?
		 WHERE id = ?`,
		e.MonthID.String(), e.AccountID, catID, subID,
		string(e.Type), e.Amount.Cents, e.Description, e.ExtraDescription, core.FormatDate(e.Date),
		group, dir, parentID, timestamp(), e.ID)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update entry %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

// DeleteEntry removes one entry row.
func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete entry %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetTransferPeer returns the other leg of a transfer group.
func (q *Queries) GetTransferPeer(ctx context.Context, groupID string, excludeID int64) (core.Entry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id
		 WHERE e.transfer_group_id = ? AND e.id != ?`, groupID, excludeID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get transfer peer of %d: %w", excludeID, err)
	}
	return e, nil
}

// GetChildEntry returns the derived auto-income entry spawned by the
// given expense, if any.
func (q *Queries) GetChildEntry(ctx context.Context, parentID int64) (core.Entry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id
		 WHERE e.parent_entry_id = ?`, parentID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get child entry of %d: %w", parentID, err)
	}
	return e, nil
}

// FindTransferLegs locates transfer legs by logical attributes: month,
// the two accounts, and the amount. Used by the explicit pair-delete
// path when no entry id is known.
func (q *Queries) FindTransferLegs(ctx context.Context, monthID core.MonthID, fromAccountID, toAccountID, amountCents int64) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id
		 WHERE e.month_id = ? AND e.type = 'transfer' AND e.amount_cents = ?
		   AND ((e.account_id = ? AND e.direction = 'out') OR (e.account_id = ? AND e.direction = 'in'))
		 ORDER BY e.id`,
		monthID.String(), amountCents, fromAccountID, toAccountID)
	if err != nil {
		return nil, fmt.Errorf("find transfer legs: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer leg: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListEntriesByMonth returns a month's entries in date order.
func (q *Queries) ListEntriesByMonth(ctx context.Context, monthID core.MonthID) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id
		 WHERE e.month_id = ? ORDER BY e.entry_date, e.id`, monthID.String())
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", monthID, err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListAllEntries streams the full history in date order for replays.
func (q *Queries) ListAllEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id
		 ORDER BY e.entry_date, e.id`)
	if err != nil {
		return nil, fmt.Errorf("list all entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListIncomesByMonth returns a month's income entries, derived
// auto-incomes excluded.
func (q *Queries) ListIncomesByMonth(ctx context.Context, monthID core.MonthID) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries e JOIN accounts a ON a.id = e.account_id
		 WHERE e.month_id = ? AND e.type = 'income' AND e.parent_entry_id IS NULL
		 ORDER BY e.entry_date, e.id`, monthID.String())
	if err != nil {
		return nil, fmt.Errorf("list incomes for %s: %w", monthID, err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
