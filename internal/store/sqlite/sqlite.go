// Package sqlite is the SQLite-backed Store implementation. It gives the
// expense core a real queryable engine: equality and range filters, the
// compound sort order and keyset pagination all run in SQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/store"

	sqlitedrv "modernc.org/sqlite"
)

const orderClause = " ORDER BY date DESC, created_at DESC, id DESC"

// Store persists expenses in a single SQLite database. Change notifications
// are delivered in-process through the shared notifier, so live subscriptions
// observe writes made through this instance.
type Store struct {
	db       *sql.DB
	notifier *store.Notifier
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath and runs pending
// migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:       db,
		notifier: store.NewNotifier(),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Create(ctx context.Context, ownerID string, e core.Expense) (string, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, amount_cents, category, date, description, payment_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?)`,
		ownerID, e.Amount.Cents, e.Category, e.Date, e.Description, e.PaymentMethod,
		now.UnixMicro(), now.UnixMicro())
	if err != nil {
		return "", mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", mapError(err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"owner", ownerID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"date", e.Date)

	s.notifier.Notify(ownerID)
	return strconv.FormatInt(id, 10), nil
}

func (s *Store) Update(ctx context.Context, id, ownerID string, e core.Expense) error {
	// id, user_id and created_at are immutable; only the mutable fields and
	// updated_at are rewritten.
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, category = ?, date = ?, description = NULLIF(?, ''), payment_method = ?, updated_at = ?
		WHERE id = ?`,
		e.Amount.Cents, e.Category, e.Date, e.Description, e.PaymentMethod,
		time.Now().UnixMicro(), id)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	s.notifier.Notify(ownerID)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	// Look up the owner first so the watch can be notified. A missing row is
	// success from the caller's perspective.
	var ownerID string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM expenses WHERE id = ?`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return mapError(err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return mapError(err)
	}

	s.notifier.Notify(ownerID)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, mapError(err)
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]core.Expense, error) {
	return s.query(ctx, selectColumns+` FROM expenses WHERE user_id = ?`+orderClause, ownerID)
}

func (s *Store) ListPage(ctx context.Context, ownerID string, pageSize int, cursor string) ([]core.Expense, string, error) {
	if pageSize < 1 {
		return nil, "", store.NewError(store.FailedPrecondition)
	}

	q := selectColumns + ` FROM expenses WHERE user_id = ?`
	args := []any{ownerID}

	if cursor != "" {
		cur, err := store.DecodeCursor(cursor)
		if err != nil {
			return nil, "", store.NewError(store.FailedPrecondition)
		}
		curID, err := strconv.ParseInt(cur.ID, 10, 64)
		if err != nil {
			return nil, "", store.NewError(store.FailedPrecondition)
		}
		q += ` AND (date < ? OR (date = ? AND (created_at < ? OR (created_at = ? AND id < ?))))`
		args = append(args, cur.Date, cur.Date, cur.CreatedAt, cur.CreatedAt, curID)
	}

	// One extra row decides whether a next page exists.
	q += orderClause + ` LIMIT ?`
	args = append(args, pageSize+1)

	expenses, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	if len(expenses) <= pageSize {
		return expenses, "", nil
	}
	page := expenses[:pageSize]
	return page, store.EncodeCursor(page[len(page)-1]), nil
}

func (s *Store) ListByDateRange(ctx context.Context, ownerID, start, end string) ([]core.Expense, error) {
	return s.query(ctx,
		selectColumns+` FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?`+orderClause,
		ownerID, start, end)
}

func (s *Store) ListByCategory(ctx context.Context, ownerID, category string) ([]core.Expense, error) {
	return s.query(ctx,
		selectColumns+` FROM expenses WHERE user_id = ? AND category = ?`+orderClause,
		ownerID, category)
}

func (s *Store) Watch(ownerID string) (<-chan struct{}, func()) {
	return s.notifier.Watch(ownerID)
}

const selectColumns = `SELECT id, user_id, amount_cents, category, date, COALESCE(description, ''), payment_method, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e                    core.Expense
		id                   int64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &e.UserID, &e.Amount.Cents, &e.Category, &e.Date,
		&e.Description, &e.PaymentMethod, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	e.ID = strconv.FormatInt(id, 10)
	e.CreatedAt = time.UnixMicro(createdAt)
	e.UpdatedAt = time.UnixMicro(updatedAt)
	return e, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// SQLite primary result codes that matter for the error taxonomy.
const (
	codeBusy     = 5
	codeLocked   = 6
	codeReadonly = 8
	codeAuth     = 23
)

// mapError folds driver errors into the normalized taxonomy so no SQLite
// result code reaches a caller.
func mapError(err error) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case codeBusy, codeLocked:
			return store.NewError(store.Unavailable)
		case codeReadonly, codeAuth:
			return store.NewError(store.PermissionDenied)
		}
	}
	return fmt.Errorf("sqlite: %w", err)
}
