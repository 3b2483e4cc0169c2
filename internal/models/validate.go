package models

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyField        = errors.New("required field is empty")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrInvalidType       = errors.New("type must be income or expense")
	ErrInvalidDate       = errors.New("invalid date")
	ErrGoalBounds        = errors.New("minimum goal must be less than maximum goal")
	ErrDuplicateCategory = errors.New("invalid or duplicate category")
)

// ParseAmount parses user input into a non-negative decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// Validate checks the fields the entry form requires before persistence.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" ||
		strings.TrimSpace(e.Date) == "" ||
		strings.TrimSpace(e.StartTime) == "" ||
		strings.TrimSpace(e.EndTime) == "" {
		return ErrEmptyField
	}
	if e.Type != TypeExpense && e.Type != TypeIncome {
		return ErrInvalidType
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Validate checks goal fields; the min bound must be strictly below the max.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Category) == "" {
		return ErrEmptyField
	}
	if g.Type != TypeExpense && g.Type != TypeIncome {
		return ErrInvalidType
	}
	if g.MinGoal.GreaterThanOrEqual(g.MaxGoal) {
		return ErrGoalBounds
	}
	return nil
}

// EffectiveCategories is the list offered in the UI: built-ins plus the
// user's own, minus duplicates of built-ins, sorted ascending.
func EffectiveCategories(stored []Category) []string {
	out := make([]string, 0, len(BuiltinCategories)+len(stored))
	out = append(out, BuiltinCategories...)
	for _, c := range stored {
		if !slices.Contains(out, c.Name) {
			out = append(out, c.Name)
		}
	}
	slices.Sort(out)
	return out
}

// ValidateNewCategory rejects empty names and case-sensitive exact
// duplicates of any effective category.
func ValidateNewCategory(name string, effective []string) error {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(effective, name) {
		return ErrDuplicateCategory
	}
	return nil
}
