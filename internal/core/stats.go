package core

import "time"

// recentCount is how many of the newest expenses a stats view carries.
const recentCount = 5

// ComputeStats derives summary statistics from an expense list snapshot.
//
// The input must already be sorted newest-first; RecentExpenses is a plain
// prefix and no re-sorting happens here. The monthly total covers expenses
// whose date falls in the same calendar month and year as now, which is
// injected to keep the computation deterministic. Categories absent from the
// input do not appear in the breakdown. Empty input yields zero totals and an
// empty breakdown.
func ComputeStats(expenses []Expense, now time.Time) ExpenseStats {
	stats := ExpenseStats{
		CategoryBreakdown: make(map[string]Money),
		RecentExpenses:    []Expense{},
	}

	for _, e := range expenses {
		stats.TotalExpenses = stats.TotalExpenses.Add(e.Amount)
		if e.Month(now.Year(), now.Month()) {
			stats.MonthlyTotal = stats.MonthlyTotal.Add(e.Amount)
		}
		stats.CategoryBreakdown[e.Category] = stats.CategoryBreakdown[e.Category].Add(e.Amount)
	}

	n := recentCount
	if len(expenses) < n {
		n = len(expenses)
	}
	stats.RecentExpenses = append(stats.RecentExpenses, expenses[:n]...)

	return stats
}
