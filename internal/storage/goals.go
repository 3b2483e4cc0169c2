package storage

import "github.com/azharanas17/MyMoney-Notes/internal/models"

// CreateGoal inserts a goal and assigns its auto-incrementing id.
func (db *DB) CreateGoal(g *models.Goal) error {
	res, err := db.conn.Exec(
		`INSERT INTO goals (user_id, month, category, category_id, type, description, photo_path, min_goal, max_goal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Month, g.Category, g.CategoryID, g.Type,
		g.Description, g.PhotoPath, g.MinGoal.String(), g.MaxGoal.String(),
	)
	if err != nil {
		return err
	}
	g.ID, err = res.LastInsertId()
	return err
}

// ListGoals returns all goals for a user.
func (db *DB) ListGoals(userID string) ([]models.Goal, error) {
	rows, err := db.conn.Query(
		`SELECT id, user_id, month, category, category_id, type, description, photo_path, min_goal, max_goal
		FROM goals WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.Month, &g.Category, &g.CategoryID, &g.Type,
			&g.Description, &g.PhotoPath, &g.MinGoal, &g.MaxGoal,
		); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
