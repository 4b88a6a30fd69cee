package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeIncome   EntryType = "income"
	TypeExpense  EntryType = "expense"
	TypeTransfer EntryType = "transfer"
)

const (
	// BudgetIncrease posts a derived informational income on the shared
	// account alongside a personal-account expense. Default.
	BudgetIncrease BalanceOption = "budget_increase"
	// BalanceExpense leaves reconciliation to the caller, who is expected
	// to post a compensating transfer separately.
	BalanceExpense BalanceOption = "balance_expense"
)

const (
	DirectionOut TransferDirection = "out"
	DirectionIn  TransferDirection = "in"
)

type (
	EntryType string

	BalanceOption string

	// TransferDirection marks which side of a transfer pair a leg is.
	TransferDirection string

	Money struct {
		Cents int64
	}

	// Account is created lazily by name on first reference.
	Account struct {
		ID   int64
		Name string
	}

	// AccountBalance is the materialized cache next to an account.
	// The entry history is the source of truth; the invariant is
	// Current == Initial + sum of signed entry effects.
	AccountBalance struct {
		AccountID   int64
		Account     string
		Initial     Money
		Current     Money
		LastUpdated time.Time
	}

	// Entry is one recorded movement. A transfer is two entries sharing
	// a TransferGroupID. A derived auto-income carries ParentEntryID and
	// has no balance effect.
	Entry struct {
		ID               int64
		MonthID          MonthID
		AccountID        int64
		Account          string
		CategoryID       *int64
		SubcategoryID    *int64
		Type             EntryType
		Amount           Money
		Description      string
		ExtraDescription string
		Date             time.Time
		TransferGroupID  string
		Direction        TransferDirection
		ParentEntryID    *int64
	}

	// NewEntry is one item of an AddEntries batch.
	NewEntry struct {
		Type             EntryType
		Account          string
		ToAccount        string // transfers only
		Category         string // expenses only
		Subcategory      string
		Amount           Money
		Description      string
		ExtraDescription string
		Date             time.Time
		BalanceOption    BalanceOption // personal-account expenses only
	}

	Statistic struct {
		MonthID     MonthID
		Category    string
		Subcategory string
		Amount      Money
		IsOpen      bool
	}

	Month struct {
		ID       MonthID
		IsClosed bool
		Budget   *Money
	}

	// MonthOpening is the carry-forward snapshot written for the bills
	// account when the prior month is closed.
	MonthOpening struct {
		AccountID int64
		MonthID   MonthID
		Opening   Money
	}

	// RecurringBill is a template materialized into MonthlyBill rows for
	// every month inside its validity window.
	RecurringBill struct {
		ID        int64
		Name      string
		Amount    Money
		ValidFrom MonthID
		ValidTo   *MonthID
		Active    bool
	}

	MonthlyBill struct {
		ID              int64
		MonthID         MonthID
		RecurringBillID int64
		Name            string
		Amount          Money
		IsPaid          bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid entry type")
	ErrEmptyAccount     = errors.New("empty account name")
	ErrSameAccount      = errors.New("transfer source and destination accounts are identical")
	ErrEmptyDescription = errors.New("empty description")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// SignedEffect returns the delta this entry applies to its own
// account's balance. Derived auto-income entries are informational and
// never move a balance.
func (e Entry) SignedEffect() int64 {
	if e.ParentEntryID != nil {
		return 0
	}
	switch e.Type {
	case TypeIncome:
		return e.Amount.Cents
	case TypeExpense:
		return -e.Amount.Cents
	case TypeTransfer:
		if e.Direction == DirectionOut {
			return -e.Amount.Cents
		}
		return e.Amount.Cents
	}
	return 0
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t EntryType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

func (o BalanceOption) Valid() bool {
	switch o {
	case "", BudgetIncrease, BalanceExpense:
		return true
	}
	return false
}

func (n NewEntry) Validate() error {
	if !n.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(n.Account) == "" {
		return ErrEmptyAccount
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if n.Date.IsZero() {
		return ErrZeroDate
	}
	if len(strings.TrimSpace(n.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(n.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if n.Type == TypeTransfer {
		if strings.TrimSpace(n.ToAccount) == "" {
			return errors.New("empty destination account")
		}
		if strings.EqualFold(strings.TrimSpace(n.Account), strings.TrimSpace(n.ToAccount)) {
			return ErrSameAccount
		}
	}
	if !n.BalanceOption.Valid() {
		return errors.New("invalid balance option")
	}
	return nil
}
