package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEnsureAccountIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	q := repo.Queries()

	first, err := q.EnsureAccount(ctx, "Wspólne")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := q.EnsureAccount(ctx, "Wspólne")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ensure created a duplicate: %d vs %d", first.ID, second.ID)
	}

	bal, err := q.GetBalance(ctx, first.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal.Initial.Cents != 0 || bal.Current.Cents != 0 {
		t.Errorf("fresh account balance = %+v, want zeros", bal)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(q *Queries) error {
		if _, err := q.EnsureAccount(ctx, "Gotówka"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx err = %v, want boom", err)
	}

	_, err = repo.Queries().GetAccountByName(ctx, "Gotówka")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled-back account is visible: %v", err)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	q := repo.Queries()

	account, err := q.EnsureAccount(ctx, "Wspólne")
	if err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	if err := q.InsertMonth(ctx, core.MonthID("2026-03")); err != nil {
		t.Fatalf("insert month: %v", err)
	}

	entry := core.Entry{
		MonthID:          core.MonthID("2026-03"),
		AccountID:        account.ID,
		Type:             core.TypeExpense,
		Amount:           core.Money{Cents: 12_34},
		Description:      "zakupy",
		ExtraDescription: "biedronka",
		Date:             time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	id, err := q.InsertEntry(ctx, entry)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := q.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Account != "Wspólne" || got.Amount.Cents != 12_34 || got.Type != core.TypeExpense {
		t.Errorf("entry = %+v", got)
	}
	if got.TransferGroupID != "" || got.Direction != "" || got.ParentEntryID != nil {
		t.Errorf("optional columns leaked values: %+v", got)
	}
	if !got.Date.Equal(entry.Date) {
		t.Errorf("date = %v, want %v", got.Date, entry.Date)
	}

	if err := q.DeleteEntry(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := q.GetEntry(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted entry still readable: %v", err)
	}
}

func TestAdjustBalanceUnknownAccount(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Queries().AdjustBalance(context.Background(), 12345, 100)
	if err == nil {
		t.Fatal("adjusting a missing balance row succeeded")
	}
}

func TestAddToStatisticAccumulates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	q := repo.Queries()

	if err := q.InsertMonth(ctx, core.MonthID("2026-03")); err != nil {
		t.Fatalf("insert month: %v", err)
	}
	for _, delta := range []int64{10_00, 5_00, -3_00} {
		if err := q.AddToStatistic(ctx, "2026-03", "zakupy", "", delta); err != nil {
			t.Fatalf("add %d: %v", delta, err)
		}
	}

	stats, err := q.ListStatistics(ctx, "2026-03")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stats) != 1 || stats[0].Amount.Cents != 12_00 {
		t.Errorf("stats = %+v, want single row of 1200", stats)
	}
}
