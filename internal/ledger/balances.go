package ledger

import (
	"context"
	"log/slog"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

// Balances exposes the account balance cache and its reconciliation
// against the entry history, which is the source of truth.
type Balances struct {
	repo *storage.Repository
}

func NewBalances(repo *storage.Repository) *Balances {
	return &Balances{repo: repo}
}

// List returns every account's cached balance.
func (b *Balances) List(ctx context.Context) ([]core.AccountBalance, error) {
	return b.repo.Queries().ListBalances(ctx)
}

// RecalculateAll rebuilds every cached balance from scratch: each
// account is reset to its initial balance and the full entry history
// is replayed in date order. Transfer legs replay like any other
// entry; derived auto-incomes replay as zero. Runs as one transaction
// so readers never observe a half-rebuilt cache.
func (b *Balances) RecalculateAll(ctx context.Context) error {
	err := b.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.ResetBalancesToInitial(ctx); err != nil {
			return err
		}
		entries, err := q.ListAllEntries(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			effect := entry.SignedEffect()
			if effect == 0 {
				continue
			}
			if err := q.AdjustBalance(ctx, entry.AccountID, effect); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Recalculated all account balances")
	return nil
}

// Drift is one account whose cached balance disagrees with its entry
// history.
type Drift struct {
	Account  string
	Cached   core.Money
	Expected core.Money
}

// AuditDrift recomputes every balance from the entry history without
// touching the cache and reports the accounts that drifted. Used by
// the background audit worker after a month closes.
func (b *Balances) AuditDrift(ctx context.Context) ([]Drift, error) {
	q := b.repo.Queries()

	balances, err := q.ListBalances(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := q.ListAllEntries(ctx)
	if err != nil {
		return nil, err
	}

	expected := make(map[int64]int64, len(balances))
	names := make(map[int64]string, len(balances))
	for _, bal := range balances {
		expected[bal.AccountID] = bal.Initial.Cents
		names[bal.AccountID] = bal.Account
	}
	for _, entry := range entries {
		expected[entry.AccountID] += entry.SignedEffect()
	}

	var drifts []Drift
	for _, bal := range balances {
		want := expected[bal.AccountID]
		if bal.Current.Cents != want {
			drifts = append(drifts, Drift{
				Account:  names[bal.AccountID],
				Cached:   bal.Current,
				Expected: core.Money{Cents: want},
			})
		}
	}
	return drifts, nil
}
