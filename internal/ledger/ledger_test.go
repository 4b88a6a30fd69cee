package ledger

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Norfeusz/finance-manager-sub000/internal/categories"
	"github.com/Norfeusz/finance-manager-sub000/internal/config"
	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

type testLedger struct {
	processor *Processor
	lifecycle *Lifecycle
	balances  *Balances
	repo      *storage.Repository
}

func newTestLedger(t *testing.T) *testLedger {
	return newTestLedgerWithEvents(t, nil)
}

func newTestLedgerWithEvents(t *testing.T, events EventPublisher) *testLedger {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		SharedAccount:    "Wspólne",
		BillsAccount:     "Rachunki",
		PersonalAccounts: []string{"Gabi", "Norf"},
		Users:            []string{"Gabi", "Norf"},
		CatchAllCategory: "zakupy",
	}
	resolver := categories.NewResolver(slog.Default())
	lifecycle := NewLifecycle(repo, cfg, events)
	return &testLedger{
		processor: NewProcessor(repo, resolver, cfg, lifecycle, events),
		lifecycle: lifecycle,
		balances:  NewBalances(repo),
		repo:      repo,
	}
}

// seedAccount creates the account with the given initial balance.
func (l *testLedger) seedAccount(t *testing.T, name string, initialCents int64) core.Account {
	t.Helper()
	q := l.repo.Queries()
	account, err := q.EnsureAccount(context.Background(), name)
	if err != nil {
		t.Fatalf("ensure account %q: %v", name, err)
	}
	if initialCents != 0 {
		if err := q.SetInitialBalance(context.Background(), account.ID, initialCents); err != nil {
			t.Fatalf("set initial balance of %q: %v", name, err)
		}
	}
	return account
}

func (l *testLedger) balance(t *testing.T, name string) core.AccountBalance {
	t.Helper()
	q := l.repo.Queries()
	account, err := q.GetAccountByName(context.Background(), name)
	if err != nil {
		t.Fatalf("get account %q: %v", name, err)
	}
	bal, err := q.GetBalance(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("get balance of %q: %v", name, err)
	}
	return bal
}

func (l *testLedger) entry(t *testing.T, id int64) core.Entry {
	t.Helper()
	e, err := l.repo.Queries().GetEntry(context.Background(), id)
	if err != nil {
		t.Fatalf("get entry %d: %v", id, err)
	}
	return e
}

func (l *testLedger) statistic(t *testing.T, monthID core.MonthID, category, subcategory string) (core.Statistic, bool) {
	t.Helper()
	stats, err := l.repo.Queries().ListStatistics(context.Background(), monthID)
	if err != nil {
		t.Fatalf("list statistics: %v", err)
	}
	for _, s := range stats {
		if s.Category == category && s.Subcategory == subcategory {
			return s, true
		}
	}
	return core.Statistic{}, false
}

// checkInvariant verifies current == initial + sum of signed effects
// for every account.
func (l *testLedger) checkInvariant(t *testing.T) {
	t.Helper()
	drifts, err := l.balances.AuditDrift(context.Background())
	if err != nil {
		t.Fatalf("audit drift: %v", err)
	}
	for _, d := range drifts {
		t.Errorf("account %q: cached %s, history says %s", d.Account, d.Cached, d.Expected)
	}
}

func testDate(day int) time.Time {
	return time.Date(2026, time.March, day, 12, 0, 0, 0, time.UTC)
}

const testMonth = core.MonthID("2026-03")

func money(cents int64) core.Money { return core.Money{Cents: cents} }
