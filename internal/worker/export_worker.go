// Package worker drives the Google Sheets mirror off the expense change
// events published by the service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
	"spendlog/internal/events"
	"spendlog/internal/store"
)

// RowAppender is the slice of the sheets client the worker needs.
type RowAppender interface {
	AppendExpense(ctx context.Context, e core.Expense) (string, error)
}

// ExpenseReader fetches a single expense; satisfied by every store backend.
type ExpenseReader interface {
	Get(ctx context.Context, id string) (core.Expense, error)
}

// ExportWorker consumes expense change events and mirrors the affected
// records to a spreadsheet.
type ExportWorker struct {
	reader ExpenseReader
	sheet  RowAppender
}

// NewExportWorker wires the worker to its record source and sheet sink.
func NewExportWorker(reader ExpenseReader, sheet RowAppender) *ExportWorker {
	return &ExportWorker{reader: reader, sheet: sheet}
}

// HandleEvent processes one change event. Created and updated records are
// appended as fresh rows; deletes are logged and skipped because the mirror
// is append-only and the record is already gone.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *events.ExpenseEvent) error {
	switch event.Action {
	case events.ActionCreated, events.ActionUpdated:
		expense, err := w.reader.Get(ctx, event.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted between the event and now; nothing left to mirror.
				slog.WarnContext(ctx, "Expense vanished before mirroring",
					"id", event.ID, "action", event.Action)
				return nil
			}
			return fmt.Errorf("get expense %s: %w", event.ID, err)
		}

		ref, err := w.sheet.AppendExpense(ctx, expense)
		if err != nil {
			return fmt.Errorf("mirror expense %s: %w", event.ID, err)
		}

		slog.InfoContext(ctx, "Mirrored expense",
			"id", event.ID,
			"action", event.Action,
			"sheets_ref", ref)
		return nil

	case events.ActionDeleted:
		slog.InfoContext(ctx, "Skipping delete event, mirror is append-only",
			"id", event.ID)
		return nil

	default:
		slog.WarnContext(ctx, "Unknown event action", "action", event.Action)
		return nil
	}
}
