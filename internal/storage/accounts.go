package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

var ErrNotFound = errors.New("not found")

// GetAccountByName looks an account up by its unique name.
func (q *Queries) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	var a core.Account
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name FROM accounts WHERE name = ?`, name,
	).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %q: %w", name, err)
	}
	return a, nil
}

// EnsureAccount resolves an account by name, creating it (with a zero
// balance row) on first reference.
func (q *Queries) EnsureAccount(ctx context.Context, name string) (core.Account, error) {
	a, err := q.GetAccountByName(ctx, name)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return core.Account{}, err
	}

	res, err := q.db.ExecContext(ctx, `INSERT INTO accounts (name) VALUES (?)`, name)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}

	if _, err := q.db.ExecContext(ctx,
		`INSERT INTO account_balances (account_id, initial_balance_cents, current_balance_cents, last_updated)
		 VALUES (?, 0, 0, ?)`, id, timestamp()); err != nil {
		return core.Account{}, fmt.Errorf("create balance row for %q: %w", name, err)
	}

	return core.Account{ID: id, Name: name}, nil
}

// GetBalance returns the balance row for one account.
func (q *Queries) GetBalance(ctx context.Context, accountID int64) (core.AccountBalance, error) {
	var (
		b  core.AccountBalance
		ts string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT b.account_id, a.name, b.initial_balance_cents, b.current_balance_cents, b.last_updated
		 FROM account_balances b JOIN accounts a ON a.id = b.account_id
		 WHERE b.account_id = ?`, accountID,
	).Scan(&b.AccountID, &b.Account, &b.Initial.Cents, &b.Current.Cents, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AccountBalance{}, ErrNotFound
	}
	if err != nil {
		return core.AccountBalance{}, fmt.Errorf("get balance for account %d: %w", accountID, err)
	}
	b.LastUpdated = parseTimestamp(ts)
	return b, nil
}

// ListBalances returns every account's balance row, ordered by name.
func (q *Queries) ListBalances(ctx context.Context) ([]core.AccountBalance, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT b.account_id, a.name, b.initial_balance_cents, b.current_balance_cents, b.last_updated
		 FROM account_balances b JOIN accounts a ON a.id = b.account_id
		 ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []core.AccountBalance
	for rows.Next() {
		var (
			b  core.AccountBalance
			ts string
		)
		if err := rows.Scan(&b.AccountID, &b.Account, &b.Initial.Cents, &b.Current.Cents, &ts); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.LastUpdated = parseTimestamp(ts)
		out = append(out, b)
	}
	return out, rows.Err()
}

// AdjustBalance applies a signed delta to an account's current balance.
// Negative results are allowed; short-term float is a legitimate state.
func (q *Queries) AdjustBalance(ctx context.Context, accountID, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE account_balances
		 SET current_balance_cents = current_balance_cents + ?, last_updated = ?
		 WHERE account_id = ?`, deltaCents, timestamp(), accountID)
	if err != nil {
		return fmt.Errorf("adjust balance of account %d: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("adjust balance of account %d: %w", accountID, ErrNotFound)
	}
	return nil
}

// SetInitialBalance sets an account's initial balance and moves the
// current balance by the same delta so recorded movements stay intact.
func (q *Queries) SetInitialBalance(ctx context.Context, accountID, initialCents int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE account_balances
		 SET current_balance_cents = current_balance_cents + (? - initial_balance_cents),
		     initial_balance_cents = ?,
		     last_updated = ?
		 WHERE account_id = ?`, initialCents, initialCents, timestamp(), accountID)
	if err != nil {
		return fmt.Errorf("set initial balance of account %d: %w", accountID, err)
	}
	return nil
}

// ResetBalancesToInitial rewinds every current balance to its initial
// value. First step of a full recalculation.
func (q *Queries) ResetBalancesToInitial(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE account_balances
		 SET current_balance_cents = initial_balance_cents, last_updated = ?`, timestamp())
	if err != nil {
		return fmt.Errorf("reset balances: %w", err)
	}
	return nil
}

// SetCurrentBalance overwrites an account's current balance. Used by
// the recalculation replay.
func (q *Queries) SetCurrentBalance(ctx context.Context, accountID, currentCents int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE account_balances SET current_balance_cents = ?, last_updated = ? WHERE account_id = ?`,
		currentCents, timestamp(), accountID)
	if err != nil {
		return fmt.Errorf("set current balance of account %d: %w", accountID, err)
	}
	return nil
}
