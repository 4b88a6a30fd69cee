package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Norfeusz/finance-manager-sub000/internal/config"
	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

// Lifecycle manages month rows: creation with their derived scaffolding
// (monthly bills, opening snapshot, statistic rows), closing with the
// carry-forward into the next month, and budget bookkeeping.
type Lifecycle struct {
	repo   *storage.Repository
	cfg    *config.Config
	events EventPublisher
}

func NewLifecycle(repo *storage.Repository, cfg *config.Config, events EventPublisher) *Lifecycle {
	return &Lifecycle{repo: repo, cfg: cfg, events: events}
}

// EnsureStatus reports what EnsureMonth had to do.
type EnsureStatus string

const (
	EnsureOK       EnsureStatus = "ok"
	EnsureCreated  EnsureStatus = "created"
	EnsureReopened EnsureStatus = "reopened"
)

// EnsureMonth makes the month writable, asking before it mutates:
// creating a missing month requires allowCreate and reopening a closed
// one requires allowReopen; otherwise the corresponding
// needs-confirmation condition comes back and nothing changes.
func (l *Lifecycle) EnsureMonth(ctx context.Context, id core.MonthID, allowCreate, allowReopen bool) (EnsureStatus, error) {
	status := EnsureOK
	err := l.repo.WithTx(ctx, func(q *storage.Queries) error {
		m, err := q.GetMonth(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			if !allowCreate {
				return &NeedsConfirmation{Action: ActionCreateMonth, MonthID: id}
			}
			status = EnsureCreated
			return l.InitializeMonth(ctx, q, id)
		}
		if err != nil {
			return err
		}
		if m.IsClosed {
			if !allowReopen {
				return &NeedsConfirmation{Action: ActionReopenMonth, MonthID: id}
			}
			status = EnsureReopened
			if err := q.SetMonthClosed(ctx, id, false); err != nil {
				return err
			}
			return q.SetStatisticsOpen(ctx, id, true)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// InitializeMonth creates the month row and its scaffolding inside the
// caller's transaction: active recurring bills become monthly bill
// rows, the bills account inherits the prior month's opening value,
// and one open statistic row is seeded per category plus one per
// subcategory of the catch-all category.
func (l *Lifecycle) InitializeMonth(ctx context.Context, q *storage.Queries, id core.MonthID) error {
	if err := q.InsertMonth(ctx, id); err != nil {
		return err
	}

	bills, err := q.ListActiveRecurringBills(ctx, id)
	if err != nil {
		return err
	}
	for _, bill := range bills {
		if err := q.InsertMonthlyBill(ctx, id, bill); err != nil {
			return err
		}
	}

	if err := l.seedOpening(ctx, q, id); err != nil {
		return err
	}

	categories, err := q.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		if err := q.InitStatistic(ctx, id, category, ""); err != nil {
			return err
		}
		if strings.EqualFold(category, l.cfg.CatchAllCategory) {
			subs, err := q.ListSubcategories(ctx, category)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				if err := q.InitStatistic(ctx, id, category, sub); err != nil {
					return err
				}
			}
		}
	}

	slog.InfoContext(ctx, "Initialized month",
		"month_id", id,
		"monthly_bills", len(bills),
		"categories", len(categories))
	return nil
}

// seedOpening copies the bills account's opening value from the prior
// month when no snapshot for this month was written at close time.
func (l *Lifecycle) seedOpening(ctx context.Context, q *storage.Queries, id core.MonthID) error {
	account, err := q.GetAccountByName(ctx, l.cfg.BillsAccount)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := q.GetMonthOpening(ctx, account.ID, id); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	prev, err := q.GetMonthOpening(ctx, account.ID, id.Prev())
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return q.UpsertMonthOpening(ctx, account.ID, id, prev.Opening.Cents)
}

// CloseMonth freezes the month: statistics become read-only and the
// bills account's current balance is snapshotted as the next month's
// opening. Closing an already-closed month is a no-op.
func (l *Lifecycle) CloseMonth(ctx context.Context, id core.MonthID) error {
	var alreadyClosed bool
	err := l.repo.WithTx(ctx, func(q *storage.Queries) error {
		m, err := q.GetMonth(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMonthNotFound
		}
		if err != nil {
			return err
		}
		if m.IsClosed {
			alreadyClosed = true
			return nil
		}

		if err := q.SetMonthClosed(ctx, id, true); err != nil {
			return err
		}
		if err := q.SetStatisticsOpen(ctx, id, false); err != nil {
			return err
		}

		account, err := q.GetAccountByName(ctx, l.cfg.BillsAccount)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		bal, err := q.GetBalance(ctx, account.ID)
		if err != nil {
			return err
		}
		return q.UpsertMonthOpening(ctx, account.ID, id.Next(), bal.Current.Cents)
	})
	if err != nil {
		return err
	}
	if alreadyClosed {
		return nil
	}

	slog.InfoContext(ctx, "Closed month", "month_id", id)
	if l.events != nil {
		if err := l.events.PublishMonthClosed(ctx, id.String()); err != nil {
			slog.ErrorContext(ctx, "Failed to publish month-closed event",
				"month_id", id, "error", err)
		}
	}
	return nil
}

// ReopenMonth makes a closed month writable again. Idempotent.
func (l *Lifecycle) ReopenMonth(ctx context.Context, id core.MonthID) error {
	return l.repo.WithTx(ctx, func(q *storage.Queries) error {
		_, err := q.GetMonth(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMonthNotFound
		}
		if err != nil {
			return err
		}
		if err := q.SetMonthClosed(ctx, id, false); err != nil {
			return err
		}
		return q.SetStatisticsOpen(ctx, id, true)
	})
}

// SetBudget stores the month's planned shared budget. A nil amount
// clears it.
func (l *Lifecycle) SetBudget(ctx context.Context, id core.MonthID, budget *core.Money) error {
	if budget != nil {
		if err := budget.Validate(); err != nil {
			return err
		}
	}
	return l.repo.WithTx(ctx, func(q *storage.Queries) error {
		_, err := q.GetMonth(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMonthNotFound
		}
		if err != nil {
			return err
		}
		var cents *int64
		if budget != nil {
			cents = &budget.Cents
		}
		return q.SetMonthBudget(ctx, id, cents)
	})
}

// ListMonths returns all known months, newest first.
func (l *Lifecycle) ListMonths(ctx context.Context) ([]core.Month, error) {
	return l.repo.Queries().ListMonths(ctx)
}

// Statistics returns the month's per-category spend rows.
func (l *Lifecycle) Statistics(ctx context.Context, id core.MonthID) ([]core.Statistic, error) {
	q := l.repo.Queries()
	if _, err := q.GetMonth(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMonthNotFound
		}
		return nil, err
	}
	return q.ListStatistics(ctx, id)
}

// InitialIncomeSuggestion is one user's proposed starting payment for
// a new month.
type InitialIncomeSuggestion struct {
	User      string
	PriorPaid core.Money
	Suggested core.Money
}

// initialIncomeMarker tags the starting payments themselves so they
// never count as "extra" contributions.
const initialIncomeMarker = "początkow"

// SuggestInitialIncomes proposes each user's starting payment for the
// month: half the budget, shifted by half the difference of the extra
// amounts they paid in during the previous month. The user who paid
// more extra starts the new month owing less, and the two suggestions
// always sum to the budget.
func (l *Lifecycle) SuggestInitialIncomes(ctx context.Context, id core.MonthID) ([]InitialIncomeSuggestion, error) {
	if len(l.cfg.Users) != 2 {
		return nil, fmt.Errorf("initial income split requires exactly two users, have %d", len(l.cfg.Users))
	}

	q := l.repo.Queries()
	m, err := q.GetMonth(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMonthNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.Budget == nil {
		return nil, ErrNoBudget
	}
	budget := m.Budget.Cents

	incomes, err := q.ListIncomesByMonth(ctx, id.Prev())
	if err != nil {
		return nil, err
	}

	paid := make([]int64, 2)
	for _, income := range incomes {
		desc := strings.ToLower(income.Description)
		if strings.Contains(desc, initialIncomeMarker) {
			continue
		}
		for i, user := range l.cfg.Users {
			if strings.HasPrefix(desc, strings.ToLower(user)) {
				paid[i] += income.Amount.Cents
				break
			}
		}
	}

	first := budget/2 - (paid[0]-paid[1])/2
	second := budget - first
	return []InitialIncomeSuggestion{
		{User: l.cfg.Users[0], PriorPaid: core.Money{Cents: paid[0]}, Suggested: core.Money{Cents: first}},
		{User: l.cfg.Users[1], PriorPaid: core.Money{Cents: paid[1]}, Suggested: core.Money{Cents: second}},
	}, nil
}
