package core

import "time"

// DateLayout is the wire format for expense dates. Dates are calendar days,
// not instants, so they are stored and compared as ISO date strings.
const DateLayout = "2006-01-02"

type (
	// Expense is a persisted expense record. ID, UserID, CreatedAt and
	// UpdatedAt are assigned by the store and immutable afterwards, except
	// UpdatedAt which is bumped on every rewrite.
	Expense struct {
		ID            string
		UserID        string
		Amount        Money
		Category      string
		Date          string // DateLayout
		Description   string
		PaymentMethod string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// ExpenseForm is the raw, string-typed input a caller submits. Amount
	// stays a string until validation coerces it.
	ExpenseForm struct {
		Amount        string
		Category      string
		Date          string
		Description   string
		PaymentMethod string
	}

	// ExpenseStats is a derived view over an owner's expense list. It is
	// never persisted; recompute it whenever the list changes.
	ExpenseStats struct {
		TotalExpenses     Money
		MonthlyTotal      Money
		CategoryBreakdown map[string]Money
		RecentExpenses    []Expense
	}
)

// Categories is the fixed set offered to callers. The store does not reject
// unknown categories; the set exists for form rendering and filters.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Travel",
	"Education",
	"Personal Care",
	"Home & Garden",
	"Gifts & Donations",
	"Business",
	"Other",
}

// PaymentMethods is the fixed set of accepted payment methods.
var PaymentMethods = []string{
	"Cash",
	"Credit Card",
	"Debit Card",
	"Bank Transfer",
	"Digital Wallet",
	"Check",
	"Other",
}

// Month reports whether the expense date falls in the given year and month.
// Unparseable dates report false.
func (e Expense) Month(year int, month time.Month) bool {
	d, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return false
	}
	return d.Year() == year && d.Month() == month
}
