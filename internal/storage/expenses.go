package storage

import (
	"database/sql"

	"github.com/azharanas17/MyMoney-Notes/internal/models"
)

const expenseColumns = "id, user_id, amount, category, category_id, type, date, timestamp, start_time, end_time, description, photo_path"

// CreateExpense inserts a new expense. Ids are client-generated and must be fresh.
func (db *DB) CreateExpense(e *models.Expense) error {
	_, err := db.conn.Exec(
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Amount.String(), e.Category, e.CategoryID, e.Type,
		e.Date, e.Timestamp, e.StartTime, e.EndTime, e.Description, e.PhotoPath,
	)
	return err
}

// UpdateExpense replaces the whole record for an existing id. Used by the
// timestamp normalization pass.
func (db *DB) UpdateExpense(e *models.Expense) error {
	_, err := db.conn.Exec(
		`UPDATE expenses SET user_id = ?, amount = ?, category = ?, category_id = ?,
			type = ?, date = ?, timestamp = ?, start_time = ?, end_time = ?,
			description = ?, photo_path = ?
		WHERE id = ?`,
		e.UserID, e.Amount.String(), e.Category, e.CategoryID, e.Type,
		e.Date, e.Timestamp, e.StartTime, e.EndTime, e.Description, e.PhotoPath,
		e.ID,
	)
	return err
}

// ListExpenses returns all of a user's expenses, newest first.
func (db *DB) ListExpenses(userID string) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY timestamp DESC",
		userID,
	)
}

// ListExpensesByType filters a user's expenses by income/expense type.
func (db *DB) ListExpensesByType(userID, typ string) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND type = ? ORDER BY timestamp DESC",
		userID, typ,
	)
}

// ListExpensesByDateRange returns expenses whose timestamp falls inside the
// inclusive [start, end] millisecond range.
func (db *DB) ListExpensesByDateRange(userID string, start, end int64) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND timestamp BETWEEN ? AND ? ORDER BY timestamp DESC",
		userID, start, end,
	)
}

// ListExpensesByCategory filters a user's expenses by exact category name.
func (db *DB) ListExpensesByCategory(userID, category string) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND category = ? ORDER BY timestamp DESC",
		userID, category,
	)
}

// ListExpensesByCategoryAndDateRange combines the category and range filters.
func (db *DB) ListExpensesByCategoryAndDateRange(userID, category string, start, end int64) ([]models.Expense, error) {
	return db.queryExpenses(
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND category = ? AND timestamp BETWEEN ? AND ? ORDER BY timestamp DESC",
		userID, category, start, end,
	)
}

// DistinctCategories returns the distinct category names present in the
// user's expenses.
func (db *DB) DistinctCategories(userID string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT category FROM expenses WHERE user_id = ?", userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (db *DB) queryExpenses(query string, args ...any) ([]models.Expense, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]models.Expense, error) {
	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Amount, &e.Category, &e.CategoryID, &e.Type,
			&e.Date, &e.Timestamp, &e.StartTime, &e.EndTime, &e.Description, &e.PhotoPath,
		); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
