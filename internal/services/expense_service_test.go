package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	"spendlog/internal/store"
	"spendlog/internal/store/memory"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*ExpenseService, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewExpenseService(st, nil, cache.NewLRU[core.ExpenseStats](16, time.Minute))
	svc.SetClock(func() time.Time { return testNow })
	return svc, st
}

func validForm() core.ExpenseForm {
	return core.ExpenseForm{
		Amount:        "42.50",
		Category:      "Food & Dining",
		Date:          "2024-01-15",
		PaymentMethod: "Cash",
	}
}

func TestAddExpensePersists(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddExpense(ctx, "u1", validForm())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != 4250 || got.UserID != "u1" || got.Category != "Food & Dining" {
		t.Fatalf("persisted record wrong: %+v", got)
	}
}

func TestAddExpenseValidationShortCircuits(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	form := validForm()
	form.Amount = "abc"
	_, err := svc.AddExpense(ctx, "u1", form)

	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Kind != core.InvalidAmount {
		t.Fatalf("expected InvalidAmount, got %v", err)
	}

	// Nothing may reach the store on a failed validation.
	list, _ := st.List(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("store must stay untouched, found %d records", len(list))
	}
}

func TestUpdateExpense(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, _ := svc.AddExpense(ctx, "u1", validForm())

	form := validForm()
	form.Amount = "99.00"
	form.Description = "team dinner"
	if err := svc.UpdateExpense(ctx, id, "u1", form); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, _ := svc.Expenses(ctx, "u1")
	if len(list) != 1 || list[0].Amount.Cents != 9900 || list[0].Description != "team dinner" {
		t.Fatalf("update not applied: %+v", list)
	}
}

func TestUpdateExpenseMissingIsNormalized(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.UpdateExpense(context.Background(), "999", "u1", validForm())
	var se *store.Error
	if !errors.As(err, &se) || se.Kind != store.FailedPrecondition {
		t.Fatalf("expected normalized FailedPrecondition, got %v", err)
	}
}

func TestDeleteExpenseIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, _ := svc.AddExpense(ctx, "u1", validForm())
	if err := svc.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("repeat delete must succeed, got %v", err)
	}
	if err := svc.DeleteExpense(ctx, "never-existed"); err != nil {
		t.Fatalf("deleting an unknown id must succeed, got %v", err)
	}

	list, _ := svc.Expenses(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestStatsScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	travel := validForm()
	travel.Category = "Travel"
	travel.Amount = "100.00"
	svc.AddExpense(ctx, "u1", travel)
	travel.Amount = "50.00"
	travel.Date = "2024-01-10"
	svc.AddExpense(ctx, "u1", travel)

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalExpenses.String() != "150.00" {
		t.Fatalf("expected total 150.00, got %s", stats.TotalExpenses)
	}
	if stats.MonthlyTotal.String() != "150.00" {
		t.Fatalf("expected monthly 150.00, got %s", stats.MonthlyTotal)
	}
	if got := stats.CategoryBreakdown["Travel"]; got.String() != "150.00" {
		t.Fatalf("expected Travel 150.00, got %s", got)
	}
	if len(stats.RecentExpenses) != 2 {
		t.Fatalf("expected 2 recent, got %d", len(stats.RecentExpenses))
	}
}

func TestStatsCacheInvalidatedByWrites(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.AddExpense(ctx, "u1", validForm())
	before, _ := svc.Stats(ctx, "u1")

	form := validForm()
	form.Amount = "10.00"
	svc.AddExpense(ctx, "u1", form)

	after, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if after.TotalExpenses == before.TotalExpenses {
		t.Fatalf("stats must reflect the new write, still %s", after.TotalExpenses)
	}
	if after.TotalExpenses.Cents != 4250+1000 {
		t.Fatalf("expected 5250 cents, got %d", after.TotalExpenses.Cents)
	}
}

func TestStatsWithoutCache(t *testing.T) {
	st := memory.New()
	svc := NewExpenseService(st, nil, nil)
	svc.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	svc.AddExpense(ctx, "u1", validForm())
	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalExpenses.Cents != 4250 {
		t.Fatalf("expected 4250, got %d", stats.TotalExpenses.Cents)
	}
}

func TestExpensesPageWalk(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.AddExpense(ctx, "u1", validForm())
	}

	var walked int
	cursor := ""
	for {
		page, next, err := svc.ExpensesPage(ctx, "u1", 2, cursor)
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		walked += len(page)
		if next == "" {
			break
		}
		cursor = next
	}
	if walked != 5 {
		t.Fatalf("expected to walk 5 records, got %d", walked)
	}
}

func TestExpensesFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.AddExpense(ctx, "u1", validForm())
	other := validForm()
	other.Category = "Travel"
	other.Date = "2023-12-01"
	svc.AddExpense(ctx, "u1", other)

	byCat, err := svc.ExpensesByCategory(ctx, "u1", "Travel")
	if err != nil || len(byCat) != 1 {
		t.Fatalf("category filter: %v, %d records", err, len(byCat))
	}

	byRange, err := svc.ExpensesByDateRange(ctx, "u1", "2024-01-01", "2024-01-31")
	if err != nil || len(byRange) != 1 || byRange[0].Category != "Food & Dining" {
		t.Fatalf("date range filter: %v, %+v", err, byRange)
	}
}

func TestSubscribeThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	snaps := make(chan []core.Expense, 4)
	unsubscribe := svc.Subscribe("u1", func(e []core.Expense) { snaps <- e }, nil)
	defer unsubscribe()

	select {
	case initial := <-snaps:
		if len(initial) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d", len(initial))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for initial snapshot")
	}

	id, _ := svc.AddExpense(ctx, "u1", validForm())
	select {
	case snap := <-snaps:
		if len(snap) != 1 || snap[0].ID != id {
			t.Fatalf("snapshot must contain the new record: %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the write snapshot")
	}
}
