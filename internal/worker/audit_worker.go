// Package worker runs the background balance audit: after every month
// close (and periodically) it recomputes account balances from the
// entry history and reports drift against the cache.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Norfeusz/finance-manager-sub000/internal/events"
	"github.com/Norfeusz/finance-manager-sub000/internal/ledger"
)

type AuditWorker struct {
	balances  *ledger.Balances
	maxReport int
}

// NewAuditWorker builds the worker. maxReport caps the drift rows
// logged per audit run; zero means no cap.
func NewAuditWorker(balances *ledger.Balances, maxReport int) *AuditWorker {
	return &AuditWorker{balances: balances, maxReport: maxReport}
}

// HandleMonthClosed audits all balances after a month close.
func (w *AuditWorker) HandleMonthClosed(ctx context.Context, msg *events.MonthClosedMessage) error {
	slog.InfoContext(ctx, "Running post-close balance audit", "month_id", msg.MonthID)
	_, err := w.RunAudit(ctx)
	if err != nil {
		return fmt.Errorf("audit after close of %s: %w", msg.MonthID, err)
	}
	return nil
}

// HandleEntriesPosted acknowledges entry activity. The cache was
// adjusted in the same transaction as the entries, so no audit runs
// here; the message keeps the worker's view of activity observable.
func (w *AuditWorker) HandleEntriesPosted(ctx context.Context, msg *events.EntriesPostedMessage) error {
	slog.DebugContext(ctx, "Entries posted",
		"month_id", msg.MonthID,
		"entries", len(msg.EntryIDs))
	return nil
}

// RunAudit performs one dry-run reconciliation pass and logs every
// drifted account. It never mutates the cache; repairs go through the
// explicit recalculate operation.
func (w *AuditWorker) RunAudit(ctx context.Context) ([]ledger.Drift, error) {
	drifts, err := w.balances.AuditDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit drift: %w", err)
	}

	if len(drifts) == 0 {
		slog.InfoContext(ctx, "Balance audit clean")
		return nil, nil
	}

	reported := drifts
	if w.maxReport > 0 && len(reported) > w.maxReport {
		reported = reported[:w.maxReport]
	}
	for _, d := range reported {
		slog.ErrorContext(ctx, "Balance drift detected",
			"account", d.Account,
			"cached", d.Cached.String(),
			"expected", d.Expected.String())
	}
	slog.WarnContext(ctx, "Balance audit found drift",
		"drifted_accounts", len(drifts),
		"reported", len(reported))
	return drifts, nil
}

// RunPeriodic audits on a fixed interval until the context ends.
func (w *AuditWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunAudit(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic balance audit failed", "error", err)
			}
		}
	}
}
