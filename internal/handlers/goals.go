package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/azharanas17/MyMoney-Notes/internal/models"
	"github.com/azharanas17/MyMoney-Notes/internal/report"
)

// GoalsViewModel is the data passed to the goals template.
type GoalsViewModel struct {
	Items []report.GoalProgress
}

// GoalFormViewModel is the data passed to the add-goal template.
type GoalFormViewModel struct {
	Categories []string
	Month      string
	Error      string
}

// Goals renders every goal with its progress against recorded entries.
// Progress is recomputed in full on each display.
func (h *Handlers) Goals(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	goals, err := h.db.ListGoals(user.ID)
	if err != nil {
		slog.Error("list goals", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}
	expenses, err := h.db.ListExpenses(user.ID)
	if err != nil {
		slog.Error("list expenses for goals", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}

	h.render(w, "goals.html", GoalsViewModel{Items: report.Progress(goals, expenses)})
}

// NewGoalForm renders the add-goal form. The month is pinned to the current
// month and not user-selectable.
func (h *Handlers) NewGoalForm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	categories, err := h.effectiveCategories(user.ID)
	if err != nil {
		slog.Error("load categories", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}
	h.render(w, "goal_form.html", GoalFormViewModel{
		Categories: categories,
		Month:      models.CurrentMonth(time.Now()),
	})
}

// CreateGoal handles the add-goal form submission. The min bound must be
// strictly below the max bound; nothing is persisted otherwise.
func (h *Handlers) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	renderError := func(msg string) {
		categories, err := h.effectiveCategories(user.ID)
		if err != nil {
			slog.Error("load categories", "user_id", user.ID, "error", err)
		}
		h.render(w, "goal_form.html", GoalFormViewModel{
			Categories: categories,
			Month:      models.CurrentMonth(time.Now()),
			Error:      msg,
		})
	}

	if err := r.ParseMultipartForm(maxPhotoUpload); err != nil {
		renderError("Invalid form submission")
		return
	}

	category := strings.TrimSpace(r.FormValue("category"))
	typ := r.FormValue("type")
	if typ != models.TypeIncome {
		typ = models.TypeExpense
	}
	description := strings.TrimSpace(r.FormValue("description"))
	minStr := strings.TrimSpace(r.FormValue("min_goal"))
	maxStr := strings.TrimSpace(r.FormValue("max_goal"))

	if category == "" || minStr == "" || maxStr == "" {
		slog.Warn("goal validation failed: empty fields", "user_id", user.ID)
		renderError("Please fill category, min goal, and max goal")
		return
	}

	minGoal, err := models.ParseAmount(minStr)
	if err != nil {
		slog.Warn("goal validation failed", "user_id", user.ID, "error", err)
		renderError("Invalid min or max goal")
		return
	}
	maxGoal, err := models.ParseAmount(maxStr)
	if err != nil {
		slog.Warn("goal validation failed", "user_id", user.ID, "error", err)
		renderError("Invalid min or max goal")
		return
	}

	if minGoal.GreaterThanOrEqual(maxGoal) {
		slog.Warn("goal validation failed: min >= max", "user_id", user.ID)
		renderError("Minimum goal must be less than maximum goal")
		return
	}

	photoPath, err := h.savePhoto(r)
	if err != nil {
		slog.Error("save photo", "user_id", user.ID, "error", err)
		renderError("Error saving photo")
		return
	}

	goal := models.Goal{
		UserID:      user.ID,
		Month:       models.CurrentMonth(time.Now()),
		Category:    category,
		CategoryID:  h.lookupCategoryID(user.ID, category),
		Type:        typ,
		Description: description,
		PhotoPath:   photoPath,
		MinGoal:     minGoal,
		MaxGoal:     maxGoal,
	}
	if err := goal.Validate(); err != nil {
		slog.Warn("goal validation failed", "user_id", user.ID, "error", err)
		renderError(err.Error())
		return
	}

	if err := h.db.CreateGoal(&goal); err != nil {
		slog.Error("create goal", "user_id", user.ID, "error", err)
		renderError("Error saving goal")
		return
	}

	slog.Info("goal saved", "goal_id", goal.ID, "user_id", user.ID,
		"category", goal.Category, "month", goal.Month)
	http.Redirect(w, r, "/goals", http.StatusFound)
}
