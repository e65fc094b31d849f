// Package store defines the document-store port the expense core persists
// through, plus the pieces shared by its implementations: the normalized
// error taxonomy, the opaque pagination cursor and the change-notification
// hub.
package store

import (
	"context"

	"spendlog/internal/core"
)

// Store is the outbound port for expense persistence. Every operation is
// scoped to a single owner and never exposes another owner's records.
//
// Ordering is identical across all listing operations: date descending,
// ties broken by createdAt descending, then id descending so the total order
// is deterministic.
//
// Ownership checks on Update are deliberately not performed here; they are
// the store deployment's responsibility (access rules), mirroring the
// upstream contract. The ownerID argument exists for change notification.
type Store interface {
	// Create writes a new record with store-assigned id and timestamps and
	// returns the generated id.
	Create(ctx context.Context, ownerID string, e core.Expense) (string, error)

	// Update rewrites the mutable fields of an existing record and bumps
	// updatedAt. It never touches id, userId or createdAt.
	Update(ctx context.Context, id, ownerID string, e core.Expense) error

	// Delete removes a record. Deleting an id that no longer exists is
	// success, so callers can treat Delete as idempotent.
	Delete(ctx context.Context, id string) error

	// Get returns a single record by id.
	Get(ctx context.Context, id string) (core.Expense, error)

	// List returns all records for the owner, newest first.
	List(ctx context.Context, ownerID string) ([]core.Expense, error)

	// ListPage returns at most pageSize records starting after the position
	// encoded in cursor (all of them when cursor is empty). The returned
	// cursor is empty once the end of the result set is reached. Paging is
	// best-effort under concurrent mutation: the cursor pins a sort
	// position, not a snapshot.
	ListPage(ctx context.Context, ownerID string, pageSize int, cursor string) ([]core.Expense, string, error)

	// ListByDateRange returns records whose date falls in [start, end],
	// bounds inclusive, newest first.
	ListByDateRange(ctx context.Context, ownerID, start, end string) ([]core.Expense, error)

	// ListByCategory returns records matching the category exactly,
	// newest first.
	ListByCategory(ctx context.Context, ownerID, category string) ([]core.Expense, error)

	// Watch registers for change notifications on the owner's expense set.
	// The channel receives a signal after every write affecting the owner;
	// signals coalesce while the receiver is busy. The cancel func detaches
	// the watch and closes the channel.
	Watch(ownerID string) (<-chan struct{}, func())

	// Close releases the store connection.
	Close() error
}
