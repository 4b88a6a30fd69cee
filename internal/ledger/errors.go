package ledger

import (
	"errors"
	"fmt"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

var (
	ErrEntryNotFound         = errors.New("entry not found")
	ErrMonthNotFound         = errors.New("month not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrTransferPairNotFound  = errors.New("transfer pair not found")
	ErrNegativeBalanceDenied = errors.New("operation would make the balance negative and the caller denied the override")
	ErrDerivedEntry          = errors.New("derived entries are managed through their originating expense")
	ErrNoBudget              = errors.New("month has no budget")
)

// ConfirmationAction names the lifecycle step the caller has to confirm
// before a mutation can proceed.
type ConfirmationAction string

const (
	ActionCreateMonth ConfirmationAction = "create_month"
	ActionReopenMonth ConfirmationAction = "reopen_month"
)

// NeedsConfirmation is the ask-before-mutate answer on lifecycle
// boundaries: nothing was changed, the caller must confirm the action
// explicitly and retry.
type NeedsConfirmation struct {
	Action  ConfirmationAction
	MonthID core.MonthID
}

func (e *NeedsConfirmation) Error() string {
	return fmt.Sprintf("needs confirmation: %s for month %s", e.Action, e.MonthID)
}

// AsNeedsConfirmation unwraps a NeedsConfirmation from an error chain.
func AsNeedsConfirmation(err error) (*NeedsConfirmation, bool) {
	var nc *NeedsConfirmation
	if errors.As(err, &nc) {
		return nc, true
	}
	return nil, false
}
