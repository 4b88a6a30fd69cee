// Package ledger implements the balance-consistency engine: posting,
// editing and deleting movements while keeping every account's cached
// balance equal to the sum of its entry history, plus the month
// lifecycle that freezes and carries balances forward.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Norfeusz/finance-manager-sub000/internal/categories"
	"github.com/Norfeusz/finance-manager-sub000/internal/config"
	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

// EventPublisher pushes committed ledger changes to interested
// consumers. Implementations must tolerate being absent; the processor
// treats a nil publisher as "events disabled".
type EventPublisher interface {
	PublishEntriesPosted(ctx context.Context, monthID string, entryIDs []int64) error
	PublishMonthClosed(ctx context.Context, monthID string) error
}

// Processor orchestrates entry mutations. Every public method runs as
// one transaction: a failure anywhere leaves balances and entries at
// their pre-operation state.
type Processor struct {
	repo      *storage.Repository
	resolver  *categories.Resolver
	cfg       *config.Config
	lifecycle *Lifecycle
	events    EventPublisher
}

func NewProcessor(repo *storage.Repository, resolver *categories.Resolver, cfg *config.Config, lifecycle *Lifecycle, events EventPublisher) *Processor {
	return &Processor{
		repo:      repo,
		resolver:  resolver,
		cfg:       cfg,
		lifecycle: lifecycle,
		events:    events,
	}
}

// AddResult reports a committed batch.
type AddResult struct {
	IDs      []int64
	Warnings []string
	// PendingTransfer is set when a balance_expense item was posted: the
	// caller still owes the compensating transfer.
	PendingTransfer bool
}

// AddEntries posts a batch atomically. Validation happens before any
// mutation; the first invalid item rejects the whole batch.
func (p *Processor) AddEntries(ctx context.Context, batch []core.NewEntry, denyNegative bool) (AddResult, error) {
	var result AddResult

	if len(batch) == 0 {
		return result, errors.New("empty batch")
	}
	for i, item := range batch {
		if err := item.Validate(); err != nil {
			return result, fmt.Errorf("item %d: %w", i, err)
		}
	}

	monthIDs := map[core.MonthID][]int64{}
	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		for i := range batch {
			item := batch[i]
			monthID := core.MonthOf(item.Date)
			if err := p.resolveOpenMonth(ctx, q, monthID); err != nil {
				return err
			}

			ids, warnings, pending, err := p.postOne(ctx, q, monthID, item, denyNegative)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			monthIDs[monthID] = append(monthIDs[monthID], ids...)
			result.IDs = append(result.IDs, ids...)
			result.Warnings = append(result.Warnings, warnings...)
			result.PendingTransfer = result.PendingTransfer || pending
		}
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}

	for monthID, ids := range monthIDs {
		p.publishEntriesPosted(ctx, monthID, ids)
	}
	return result, nil
}

// resolveOpenMonth ensures the month row exists and is open, creating
// it on first reference and answering needs-confirmation when closed.
func (p *Processor) resolveOpenMonth(ctx context.Context, q *storage.Queries, monthID core.MonthID) error {
	m, err := q.GetMonth(ctx, monthID)
	if errors.Is(err, storage.ErrNotFound) {
		return p.lifecycle.InitializeMonth(ctx, q, monthID)
	}
	if err != nil {
		return err
	}
	if m.IsClosed {
		return &NeedsConfirmation{Action: ActionReopenMonth, MonthID: monthID}
	}
	return nil
}

// postOne applies one batch item inside the shared transaction.
func (p *Processor) postOne(ctx context.Context, q *storage.Queries, monthID core.MonthID, item core.NewEntry, denyNegative bool) (ids []int64, warnings []string, pending bool, err error) {
	account, err := q.EnsureAccount(ctx, strings.TrimSpace(item.Account))
	if err != nil {
		return nil, nil, false, err
	}

	switch item.Type {
	case core.TypeIncome:
		entry := core.Entry{
			MonthID:          monthID,
			AccountID:        account.ID,
			Type:             core.TypeIncome,
			Amount:           item.Amount,
			Description:      item.Description,
			ExtraDescription: item.ExtraDescription,
			Date:             item.Date,
		}
		id, err := q.InsertEntry(ctx, entry)
		if err != nil {
			return nil, nil, false, err
		}
		if err := q.AdjustBalance(ctx, account.ID, item.Amount.Cents); err != nil {
			return nil, nil, false, err
		}
		return []int64{id}, nil, false, nil

	case core.TypeExpense:
		warning, err := p.checkProjectedBalance(ctx, q, account, -item.Amount.Cents, denyNegative)
		if err != nil {
			return nil, nil, false, err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}

		var (
			categoryID                 *int64
			subID                      *int64
			canonicalCat, canonicalSub string
		)
		if strings.TrimSpace(item.Category) != "" {
			var catID int64
			catID, subID, canonicalCat, canonicalSub, err = p.resolver.Resolve(ctx, q, item.Category, item.Subcategory)
			if err != nil {
				return nil, nil, false, err
			}
			categoryID = &catID
		}

		entry := core.Entry{
			MonthID:          monthID,
			AccountID:        account.ID,
			CategoryID:       categoryID,
			SubcategoryID:    subID,
			Type:             core.TypeExpense,
			Amount:           item.Amount,
			Description:      item.Description,
			ExtraDescription: item.ExtraDescription,
			Date:             item.Date,
		}
		id, err := q.InsertEntry(ctx, entry)
		if err != nil {
			return nil, nil, false, err
		}
		if err := q.AdjustBalance(ctx, account.ID, -item.Amount.Cents); err != nil {
			return nil, nil, false, err
		}
		if err := p.applyStatistics(ctx, q, monthID, canonicalCat, canonicalSub, item.Amount.Cents); err != nil {
			return nil, nil, false, err
		}
		ids = append(ids, id)

		if p.cfg.IsPersonalAccount(account.Name) {
			option := item.BalanceOption
			if option == "" {
				option = core.BudgetIncrease
			}
			switch option {
			case core.BudgetIncrease:
				derivedID, err := p.createDerivedIncome(ctx, q, monthID, id, account.Name, item)
				if err != nil {
					return nil, nil, false, err
				}
				ids = append(ids, derivedID)
			case core.BalanceExpense:
				pending = true
			}
		}
		return ids, warnings, pending, nil

	case core.TypeTransfer:
		toAccount, err := q.EnsureAccount(ctx, strings.TrimSpace(item.ToAccount))
		if err != nil {
			return nil, nil, false, err
		}
		warning, err := p.checkProjectedBalance(ctx, q, account, -item.Amount.Cents, denyNegative)
		if err != nil {
			return nil, nil, false, err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}

		group := uuid.NewString()
		outLeg := core.Entry{
			MonthID:          monthID,
			AccountID:        account.ID,
			Type:             core.TypeTransfer,
			Amount:           item.Amount,
			Description:      item.Description,
			ExtraDescription: item.ExtraDescription,
			Date:             item.Date,
			TransferGroupID:  group,
			Direction:        core.DirectionOut,
		}
		inLeg := outLeg
		inLeg.AccountID = toAccount.ID
		inLeg.Direction = core.DirectionIn

		outID, err := q.InsertEntry(ctx, outLeg)
		if err != nil {
			return nil, nil, false, err
		}
		inID, err := q.InsertEntry(ctx, inLeg)
		if err != nil {
			return nil, nil, false, err
		}
		if err := q.AdjustBalance(ctx, account.ID, -item.Amount.Cents); err != nil {
			return nil, nil, false, err
		}
		if err := q.AdjustBalance(ctx, toAccount.ID, item.Amount.Cents); err != nil {
			return nil, nil, false, err
		}
		return []int64{outID, inID}, warnings, false, nil
	}

	return nil, nil, false, core.ErrInvalidType
}

// checkProjectedBalance computes the post-operation balance and warns,
// without blocking, when it would go negative. Only an explicit
// override denial turns the warning into an error.
func (p *Processor) checkProjectedBalance(ctx context.Context, q *storage.Queries, account core.Account, deltaCents int64, denyNegative bool) (string, error) {
	bal, err := q.GetBalance(ctx, account.ID)
	if err != nil {
		return "", err
	}
	projected := bal.Current.Cents + deltaCents
	if projected >= 0 {
		return "", nil
	}
	if denyNegative {
		return "", fmt.Errorf("account %q projected balance %s: %w",
			account.Name, core.Money{Cents: projected}, ErrNegativeBalanceDenied)
	}
	slog.WarnContext(ctx, "Projected balance is negative",
		"account", account.Name,
		"balance_cents", bal.Current.Cents,
		"projected_cents", projected)
	return fmt.Sprintf("account %q balance will drop to %s", account.Name, core.Money{Cents: projected}), nil
}

// createDerivedIncome posts the reporting-only reimbursement entry on
// the shared account. It deliberately skips AdjustBalance: the shared
// account's balance never moves for a budget_increase expense.
func (p *Processor) createDerivedIncome(ctx context.Context, q *storage.Queries, monthID core.MonthID, parentID int64, personalAccount string, item core.NewEntry) (int64, error) {
	shared, err := q.EnsureAccount(ctx, p.cfg.SharedAccount)
	if err != nil {
		return 0, err
	}
	derived := core.Entry{
		MonthID:          monthID,
		AccountID:        shared.ID,
		Type:             core.TypeIncome,
		Amount:           item.Amount,
		Description:      "Zwrot: " + item.Description,
		ExtraDescription: personalAccount,
		Date:             item.Date,
		ParentEntryID:    &parentID,
	}
	id, err := q.InsertEntry(ctx, derived)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Posted derived auto-income",
		"entry_id", id,
		"parent_entry_id", parentID,
		"account", shared.Name,
		"amount_cents", item.Amount.Cents)
	return id, nil
}

// applyStatistics folds an expense delta into the month's statistic
// rows, inside the same transaction as the entry mutation. The
// catch-all category additionally tracks per-subcategory buckets.
func (p *Processor) applyStatistics(ctx context.Context, q *storage.Queries, monthID core.MonthID, category, subcategory string, deltaCents int64) error {
	if category == "" {
		return nil
	}
	if err := q.AddToStatistic(ctx, monthID, category, "", deltaCents); err != nil {
		return err
	}
	if subcategory != "" && strings.EqualFold(category, p.cfg.CatchAllCategory) {
		if err := q.AddToStatistic(ctx, monthID, category, subcategory, deltaCents); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) publishEntriesPosted(ctx context.Context, monthID core.MonthID, ids []int64) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishEntriesPosted(ctx, monthID.String(), ids); err != nil {
		// The batch is committed; a lost event only delays the audit.
		slog.ErrorContext(ctx, "Failed to publish entries-posted event",
			"month_id", monthID, "error", err)
	}
}

// statisticNames resolves the canonical statistic bucket names of a
// stored expense entry.
func (p *Processor) statisticNames(ctx context.Context, q *storage.Queries, e core.Entry) (category, subcategory string, err error) {
	if e.CategoryID == nil {
		return "", "", nil
	}
	category, err = q.CategoryName(ctx, *e.CategoryID)
	if err != nil {
		return "", "", err
	}
	if e.SubcategoryID != nil {
		subcategory, err = q.SubcategoryName(ctx, *e.SubcategoryID)
		if err != nil {
			return "", "", err
		}
	}
	return category, subcategory, nil
}

// UpdateFields carries the changed attributes of an entry edit. Nil
// pointers leave the stored value alone. For transfer legs, Account
// moves the edited leg's side and ToAccount the opposite side.
type UpdateFields struct {
	Account          *string
	ToAccount        *string
	Amount           *core.Money
	Description      *string
	ExtraDescription *string
	Date             *time.Time
	Category         *string
	Subcategory      *string
	BalanceOption    *core.BalanceOption
}

// UpdateEntry reverses the stored entry's balance effect and reapplies
// the updated one, moving derived entries and transfer peers in
// lock-step.
func (p *Processor) UpdateEntry(ctx context.Context, id int64, fields UpdateFields, denyNegative bool) error {
	if fields.Amount != nil {
		if err := fields.Amount.Validate(); err != nil {
			return err
		}
	}

	var touchedMonth core.MonthID
	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		entry, err := q.GetEntry(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if entry.ParentEntryID != nil {
			return ErrDerivedEntry
		}

		if err := p.requireOpenMonth(ctx, q, entry.MonthID); err != nil {
			return err
		}

		targetMonth := entry.MonthID
		if fields.Date != nil {
			targetMonth = core.MonthOf(*fields.Date)
			if targetMonth != entry.MonthID {
				if err := p.resolveOpenMonth(ctx, q, targetMonth); err != nil {
					return err
				}
			}
		}
		touchedMonth = targetMonth

		switch entry.Type {
		case core.TypeTransfer:
			return p.updateTransfer(ctx, q, entry, targetMonth, fields, denyNegative)
		case core.TypeExpense:
			return p.updateExpense(ctx, q, entry, targetMonth, fields, denyNegative)
		default:
			return p.updateIncome(ctx, q, entry, targetMonth, fields)
		}
	})
	if err != nil {
		return err
	}
	p.publishEntriesPosted(ctx, touchedMonth, []int64{id})
	return nil
}

func (p *Processor) requireOpenMonth(ctx context.Context, q *storage.Queries, monthID core.MonthID) error {
	m, err := q.GetMonth(ctx, monthID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrMonthNotFound
	}
	if err != nil {
		return err
	}
	if m.IsClosed {
		return &NeedsConfirmation{Action: ActionReopenMonth, MonthID: monthID}
	}
	return nil
}

func (p *Processor) updateIncome(ctx context.Context, q *storage.Queries, entry core.Entry, targetMonth core.MonthID, fields UpdateFields) error {
	// Reverse on the original account, reapply on the (possibly new) one.
	if err := q.AdjustBalance(ctx, entry.AccountID, -entry.SignedEffect()); err != nil {
		return err
	}

	updated := entry
	updated.MonthID = targetMonth
	applyCommonFields(&updated, fields)
	if fields.Account != nil {
		account, err := q.EnsureAccount(ctx, strings.TrimSpace(*fields.Account))
		if err != nil {
			return err
		}
		updated.AccountID = account.ID
		updated.Account = account.Name
	}

	if err := q.AdjustBalance(ctx, updated.AccountID, updated.SignedEffect()); err != nil {
		return err
	}
	return q.UpdateEntry(ctx, updated)
}

func (p *Processor) updateExpense(ctx context.Context, q *storage.Queries, entry core.Entry, targetMonth core.MonthID, fields UpdateFields, denyNegative bool) error {
	// Reverse balance and statistics effects of the stored version.
	if err := q.AdjustBalance(ctx, entry.AccountID, entry.Amount.Cents); err != nil {
		return err
	}
	oldCat, oldSub, err := p.statisticNames(ctx, q, entry)
	if err != nil {
		return err
	}
	if err := p.applyStatistics(ctx, q, entry.MonthID, oldCat, oldSub, -entry.Amount.Cents); err != nil {
		return err
	}

	// The derived auto-income, if any, is recreated from scratch below.
	child, err := q.GetChildEntry(ctx, entry.ID)
	hadChild := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if hadChild {
		if err := q.DeleteEntry(ctx, child.ID); err != nil {
			return err
		}
	}

	updated := entry
	updated.MonthID = targetMonth
	applyCommonFields(&updated, fields)

	account := core.Account{ID: entry.AccountID, Name: entry.Account}
	if fields.Account != nil {
		account, err = q.EnsureAccount(ctx, strings.TrimSpace(*fields.Account))
		if err != nil {
			return err
		}
		updated.AccountID = account.ID
		updated.Account = account.Name
	}

	newCat, newSub := oldCat, oldSub
	if fields.Category != nil || fields.Subcategory != nil {
		catLabel := oldCat
		if fields.Category != nil {
			catLabel = *fields.Category
		}
		subLabel := oldSub
		if fields.Subcategory != nil {
			subLabel = *fields.Subcategory
		}
		if strings.TrimSpace(catLabel) == "" {
			updated.CategoryID = nil
			updated.SubcategoryID = nil
			newCat, newSub = "", ""
		} else {
			catID, subID, canonicalCat, canonicalSub, err := p.resolver.Resolve(ctx, q, catLabel, subLabel)
			if err != nil {
				return err
			}
			updated.CategoryID = &catID
			updated.SubcategoryID = subID
			newCat, newSub = canonicalCat, canonicalSub
		}
	}

	if _, err := p.checkProjectedBalance(ctx, q, account, -updated.Amount.Cents, denyNegative); err != nil {
		return err
	}
	if err := q.AdjustBalance(ctx, updated.AccountID, -updated.Amount.Cents); err != nil {
		return err
	}
	if err := p.applyStatistics(ctx, q, targetMonth, newCat, newSub, updated.Amount.Cents); err != nil {
		return err
	}
	if err := q.UpdateEntry(ctx, updated); err != nil {
		return err
	}

	// Recreate the derived entry when the updated expense sits on a
	// personal account with the budget_increase option. Absent an
	// explicit option, an expense that was already personal keeps its
	// original choice (no child means balance_expense was picked); one
	// moved onto a personal account gets the default.
	option := core.BudgetIncrease
	if fields.BalanceOption != nil && *fields.BalanceOption != "" {
		option = *fields.BalanceOption
	} else if p.cfg.IsPersonalAccount(entry.Account) && !hadChild {
		option = core.BalanceExpense
	}
	if p.cfg.IsPersonalAccount(updated.Account) && option == core.BudgetIncrease {
		item := core.NewEntry{
			Amount:           updated.Amount,
			Description:      updated.Description,
			ExtraDescription: updated.ExtraDescription,
			Date:             updated.Date,
		}
		if _, err := p.createDerivedIncome(ctx, q, targetMonth, updated.ID, updated.Account, item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) updateTransfer(ctx context.Context, q *storage.Queries, entry core.Entry, targetMonth core.MonthID, fields UpdateFields, denyNegative bool) error {
	peer, err := q.GetTransferPeer(ctx, entry.TransferGroupID, entry.ID)
	peerFound := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if !peerFound {
		slog.WarnContext(ctx, "Transfer pair row missing, reversing the located leg only",
			"entry_id", entry.ID,
			"transfer_group", entry.TransferGroupID)
	}

	// Reverse both legs (or the one that survives).
	if err := q.AdjustBalance(ctx, entry.AccountID, -entry.SignedEffect()); err != nil {
		return err
	}
	if peerFound {
		if err := q.AdjustBalance(ctx, peer.AccountID, -peer.SignedEffect()); err != nil {
			return err
		}
	}

	updated := entry
	updated.MonthID = targetMonth
	applyCommonFields(&updated, fields)

	if fields.Account != nil {
		account, err := q.EnsureAccount(ctx, strings.TrimSpace(*fields.Account))
		if err != nil {
			return err
		}
		updated.AccountID = account.ID
		updated.Account = account.Name
	}

	var source core.Account
	if updated.Direction == core.DirectionOut {
		source = core.Account{ID: updated.AccountID, Name: updated.Account}
	}

	if err := q.AdjustBalance(ctx, updated.AccountID, updated.SignedEffect()); err != nil {
		return err
	}
	if err := q.UpdateEntry(ctx, updated); err != nil {
		return err
	}

	if peerFound {
		updatedPeer := peer
		updatedPeer.MonthID = targetMonth
		updatedPeer.Amount = updated.Amount
		updatedPeer.Description = updated.Description
		updatedPeer.ExtraDescription = updated.ExtraDescription
		updatedPeer.Date = updated.Date
		if fields.ToAccount != nil {
			other, err := q.EnsureAccount(ctx, strings.TrimSpace(*fields.ToAccount))
			if err != nil {
				return err
			}
			updatedPeer.AccountID = other.ID
			updatedPeer.Account = other.Name
		}
		if updatedPeer.AccountID == updated.AccountID {
			return core.ErrSameAccount
		}
		if updatedPeer.Direction == core.DirectionOut {
			source = core.Account{ID: updatedPeer.AccountID, Name: updatedPeer.Account}
		}
		if err := q.AdjustBalance(ctx, updatedPeer.AccountID, updatedPeer.SignedEffect()); err != nil {
			return err
		}
		if err := q.UpdateEntry(ctx, updatedPeer); err != nil {
			return err
		}
	}

	if source.ID != 0 {
		if _, err := p.checkProjectedBalance(ctx, q, source, 0, denyNegative); err != nil {
			return err
		}
	}
	return nil
}

// applyCommonFields copies the simple field updates shared by all
// entry types.
func applyCommonFields(e *core.Entry, fields UpdateFields) {
	if fields.Amount != nil {
		e.Amount = *fields.Amount
	}
	if fields.Description != nil {
		e.Description = *fields.Description
	}
	if fields.ExtraDescription != nil {
		e.ExtraDescription = *fields.ExtraDescription
	}
	if fields.Date != nil {
		e.Date = *fields.Date
	}
}

// DeleteEntry reverses the stored entry's balance effect and removes
// it, unwinding derived entries and transfer peers.
func (p *Processor) DeleteEntry(ctx context.Context, id int64) error {
	return p.repo.WithTx(ctx, func(q *storage.Queries) error {
		entry, err := q.GetEntry(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if entry.ParentEntryID != nil {
			// Derived auto-incomes follow their parent expense; they are
			// never edited or deleted on their own.
			return ErrDerivedEntry
		}
		if err := p.requireOpenMonth(ctx, q, entry.MonthID); err != nil {
			return err
		}

		switch entry.Type {
		case core.TypeTransfer:
			return p.deleteTransferLeg(ctx, q, entry)
		case core.TypeExpense:
			return p.deleteExpense(ctx, q, entry)
		default:
			if err := q.AdjustBalance(ctx, entry.AccountID, -entry.SignedEffect()); err != nil {
				return err
			}
			return q.DeleteEntry(ctx, entry.ID)
		}
	})
}

func (p *Processor) deleteExpense(ctx context.Context, q *storage.Queries, entry core.Entry) error {
	if err := q.AdjustBalance(ctx, entry.AccountID, entry.Amount.Cents); err != nil {
		return err
	}

	category, subcategory, err := p.statisticNames(ctx, q, entry)
	if err != nil {
		return err
	}
	if err := p.applyStatistics(ctx, q, entry.MonthID, category, subcategory, -entry.Amount.Cents); err != nil {
		return err
	}

	// The shared account's balance never moved, so the derived entry is
	// removed without any adjustment.
	child, err := q.GetChildEntry(ctx, entry.ID)
	if err == nil {
		if err := q.DeleteEntry(ctx, child.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	return q.DeleteEntry(ctx, entry.ID)
}

func (p *Processor) deleteTransferLeg(ctx context.Context, q *storage.Queries, entry core.Entry) error {
	if err := q.AdjustBalance(ctx, entry.AccountID, -entry.SignedEffect()); err != nil {
		return err
	}
	if err := q.DeleteEntry(ctx, entry.ID); err != nil {
		return err
	}

	peer, err := q.GetTransferPeer(ctx, entry.TransferGroupID, entry.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transfer pair row missing, reversed the located leg only",
			"entry_id", entry.ID,
			"transfer_group", entry.TransferGroupID)
		return nil
	}
	if err != nil {
		return err
	}
	if err := q.AdjustBalance(ctx, peer.AccountID, -peer.SignedEffect()); err != nil {
		return err
	}
	return q.DeleteEntry(ctx, peer.ID)
}

// DeleteTransferPair removes both legs of a transfer located by its
// logical attributes instead of an entry id.
func (p *Processor) DeleteTransferPair(ctx context.Context, fromAccount, toAccount string, amount core.Money, date time.Time) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	monthID := core.MonthOf(date)

	return p.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := p.requireOpenMonth(ctx, q, monthID); err != nil {
			return err
		}

		from, err := q.GetAccountByName(ctx, strings.TrimSpace(fromAccount))
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		to, err := q.GetAccountByName(ctx, strings.TrimSpace(toAccount))
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		legs, err := q.FindTransferLegs(ctx, monthID, from.ID, to.ID, amount.Cents)
		if err != nil {
			return err
		}
		if len(legs) == 0 {
			return ErrTransferPairNotFound
		}

		var outLeg *core.Entry
		for i := range legs {
			if legs[i].Direction == core.DirectionOut {
				outLeg = &legs[i]
				break
			}
		}
		if outLeg == nil {
			// Only the incoming leg survives: partial reversal.
			slog.WarnContext(ctx, "Transfer outgoing leg missing, reversing the incoming leg only",
				"transfer_group", legs[0].TransferGroupID)
			if err := q.AdjustBalance(ctx, legs[0].AccountID, -legs[0].SignedEffect()); err != nil {
				return err
			}
			return q.DeleteEntry(ctx, legs[0].ID)
		}

		return p.deleteTransferLeg(ctx, q, *outLeg)
	})
}
