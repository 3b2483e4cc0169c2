package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types. Everything in the ledger is one or the other.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Date layouts used throughout the app. Dates are entered and displayed
// day-first; goal months are keyed as MM/YYYY.
const (
	DateLayout  = "02/01/2006"
	MonthLayout = "01/2006"
)

// BuiltinCategories are always offered, on top of whatever the user adds.
var BuiltinCategories = []string{"Food", "Transport", "Entertainment", "Bills", "Other"}

// User is the local record for a provider-issued identity. The id comes from
// the identity provider; username is a local alias used to resolve the email
// at login time.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Category is a user-created category name. Built-in categories are not stored.
type Category struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Expense is a single income or expense entry.
//
// Date is the day-first display string the user entered; Timestamp is the
// start-of-day instant derived from it, used for range queries. CategoryID is
// the stored category id looked up at save time, falling back to the category
// name when the lookup finds nothing.
type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	CategoryID  string          `json:"category_id"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Timestamp   int64           `json:"timestamp"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Description string          `json:"description"`
	PhotoPath   string          `json:"photo_path"`
}

// Goal is a monthly min/max spending target for one category and type.
// Month is fixed to the month the goal was created in.
type Goal struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Month       string          `json:"month"`
	Category    string          `json:"category"`
	CategoryID  string          `json:"category_id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	PhotoPath   string          `json:"photo_path"`
	MinGoal     decimal.Decimal `json:"min_goal"`
	MaxGoal     decimal.Decimal `json:"max_goal"`
}

// CategoryTotal is the net amount recorded against one category:
// expenses add, income subtracts.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// DateToTimestamp parses a day-first display date and returns the
// start-of-day instant in Unix milliseconds.
func DateToTimestamp(date string) (int64, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// StartOfDayMilli truncates t to midnight in its own location and returns
// Unix milliseconds.
func StartOfDayMilli(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).UnixMilli()
}

// CurrentMonth returns the MM/YYYY key for now, the month new goals are
// pinned to.
func CurrentMonth(now time.Time) string {
	return now.Format(MonthLayout)
}
