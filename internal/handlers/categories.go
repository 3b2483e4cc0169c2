package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/azharanas17/MyMoney-Notes/internal/models"
	"github.com/azharanas17/MyMoney-Notes/internal/report"
)

// CategoriesViewModel is the data passed to the categories template.
type CategoriesViewModel struct {
	Totals []models.CategoryTotal
	Error  string
}

// CategoryExpensesViewModel is the data for one category's expense list.
type CategoryExpensesViewModel struct {
	Category string
	From     string
	To       string
	Expenses []models.Expense
	Message  string
}

// Categories renders the per-category net totals.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	expenses, err := h.db.ListExpenses(user.ID)
	if err != nil {
		slog.Error("list expenses for totals", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}

	vm := CategoriesViewModel{Totals: report.CategoryTotals(expenses)}
	if r.URL.Query().Get("err") == "category" {
		vm.Error = "Invalid or duplicate category"
	}
	h.render(w, "categories.html", vm)
}

// AddCategory handles the add-category form. Duplicates of any effective
// category (built-in or stored, case-sensitive) are rejected before insert.
func (h *Handlers) AddCategory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/categories?err=category", http.StatusFound)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	returnTo := r.FormValue("return")
	if returnTo == "" {
		returnTo = "/categories"
	}

	effective, err := h.effectiveCategories(user.ID)
	if err != nil {
		slog.Error("load categories", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}

	if err := models.ValidateNewCategory(name, effective); err != nil {
		slog.Warn("invalid category", "user_id", user.ID, "name", name)
		http.Redirect(w, r, returnTo+"?err=category", http.StatusFound)
		return
	}

	if err := h.db.CreateCategory(&models.Category{UserID: user.ID, Name: name}); err != nil {
		slog.Error("create category", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}

	slog.Info("category added", "user_id", user.ID, "name", name)
	http.Redirect(w, r, returnTo, http.StatusFound)
}

// CategoryExpenses renders one category's expenses, optionally restricted to
// an inclusive date range.
func (h *Handlers) CategoryExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	category := r.PathValue("name")

	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	var (
		expenses []models.Expense
		err      error
	)
	if from != "" && to != "" {
		var start, end int64
		start, err = models.DateToTimestamp(from)
		if err == nil {
			end, err = models.DateToTimestamp(to)
		}
		if err != nil {
			slog.Warn("invalid date range", "from", from, "to", to, "error", err)
			expenses, err = h.db.ListExpensesByCategory(user.ID, category)
		} else {
			expenses, err = h.db.ListExpensesByCategoryAndDateRange(user.ID, category, start, end)
		}
	} else {
		expenses, err = h.db.ListExpensesByCategory(user.ID, category)
	}
	if err != nil {
		slog.Error("list category expenses", "user_id", user.ID, "category", category, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}

	vm := CategoryExpensesViewModel{
		Category: category,
		From:     from,
		To:       to,
		Expenses: expenses,
	}
	if len(expenses) == 0 {
		vm.Message = "No expenses found for " + category + " in selected range"
	}
	h.render(w, "category_expenses.html", vm)
}
