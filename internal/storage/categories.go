package storage

import "github.com/azharanas17/MyMoney-Notes/internal/models"

// CreateCategory inserts a user-created category. Uniqueness against the
// effective list is the caller's responsibility.
func (db *DB) CreateCategory(c *models.Category) error {
	res, err := db.conn.Exec(
		"INSERT INTO categories (user_id, name) VALUES (?, ?)",
		c.UserID, c.Name,
	)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

// ListCategories returns all categories the user has created.
func (db *DB) ListCategories(userID string) ([]models.Category, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, name FROM categories WHERE user_id = ?", userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
