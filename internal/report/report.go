// Package report computes the aggregations shown on the categories and goals
// screens. Everything here is a pure function of the store contents passed
// in, recomputed in full on every screen display.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azharanas17/MyMoney-Notes/internal/models"
)

// Goal status labels.
const (
	StatusWithinBudget = "within budget"
	StatusOverspent    = "overspent"
)

var hundred = decimal.NewFromInt(100)

// GoalProgress is one goal together with the spend recorded against it.
type GoalProgress struct {
	Goal       models.Goal
	TotalSpent decimal.Decimal
	Percent    int
	Status     string
}

// MonthKey re-derives the MM/YYYY key from an expense's display date. A date
// that fails to parse yields the empty key, which never matches any goal.
func MonthKey(date string) string {
	t, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		return ""
	}
	return t.Format(models.MonthLayout)
}

// Progress evaluates every goal against the full expense set. Goals sharing
// category, type and month are reported independently, each against the whole
// matching set.
func Progress(goals []models.Goal, expenses []models.Expense) []GoalProgress {
	results := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		spent := decimal.Zero
		for _, e := range expenses {
			if e.Category == g.Category && e.Type == g.Type && MonthKey(e.Date) == g.Month {
				spent = spent.Add(e.Amount)
			}
		}

		percent := 0
		if g.MaxGoal.IsPositive() {
			p := spent.Div(g.MaxGoal).Mul(hundred)
			if p.IsNegative() {
				p = decimal.Zero
			} else if p.GreaterThan(hundred) {
				p = hundred
			}
			percent = int(p.IntPart())
		}

		status := StatusWithinBudget
		if spent.GreaterThan(g.MaxGoal) {
			status = StatusOverspent
		}

		results = append(results, GoalProgress{
			Goal:       g,
			TotalSpent: spent,
			Percent:    percent,
			Status:     status,
		})
	}
	return results
}

// CategoryTotals nets each category present in the expense set: expense
// entries add to the total, income entries subtract. Categories never used
// do not appear. Results are sorted by category name.
func CategoryTotals(expenses []models.Expense) []models.CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		amount := e.Amount
		if e.Type != models.TypeExpense {
			amount = amount.Neg()
		}
		totals[e.Category] = totals[e.Category].Add(amount)
	}

	out := make([]models.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, models.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
