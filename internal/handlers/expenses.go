package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/azharanas17/MyMoney-Notes/internal/models"
)

// maxPhotoUpload caps multipart form memory for photo uploads.
const maxPhotoUpload = 10 << 20

// ExpenseGroup groups a day's entries in the list view.
type ExpenseGroup struct {
	Title     string
	Date      string
	Total     decimal.Decimal
	timestamp int64
	Items     []models.Expense
}

// ExpensesViewModel is the data passed to the expenses list template.
type ExpensesViewModel struct {
	Filter string
	From   string
	To     string
	Total  decimal.Decimal
	Groups []ExpenseGroup
}

// ExpenseFormViewModel is the data passed to the add-expense template.
type ExpenseFormViewModel struct {
	Categories []string
	Error      string
	Today      string
}

// ListExpenses renders the expense list with the all/expense/income filter
// chips and an optional date range. Before rendering it runs the timestamp
// normalization pass over the user's records.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	h.normalizeTimestamps(user.ID)

	filter := r.URL.Query().Get("filter")
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	var (
		expenses []models.Expense
		err      error
	)
	switch {
	case filter == models.TypeExpense || filter == models.TypeIncome:
		expenses, err = h.db.ListExpensesByType(user.ID, filter)
	case from != "" && to != "":
		var start, end int64
		start, err = models.DateToTimestamp(from)
		if err == nil {
			end, err = models.DateToTimestamp(to)
		}
		if err != nil {
			slog.Warn("invalid date range", "from", from, "to", to, "error", err)
			expenses, err = h.db.ListExpenses(user.ID)
		} else {
			expenses, err = h.db.ListExpensesByDateRange(user.ID, start, end)
		}
		filter = "range"
	default:
		filter = "all"
		expenses, err = h.db.ListExpenses(user.ID)
	}
	if err != nil {
		slog.Error("list expenses", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}

	groupsMap := make(map[string]*ExpenseGroup)
	total := decimal.Zero
	for _, e := range expenses {
		g, ok := groupsMap[e.Date]
		if !ok {
			g = &ExpenseGroup{
				Date:      e.Date,
				Title:     formatGroupTitle(e.Timestamp),
				timestamp: e.Timestamp,
			}
			groupsMap[e.Date] = g
		}
		amount := e.Amount
		if e.Type == models.TypeIncome {
			amount = amount.Neg()
		}
		g.Total = g.Total.Add(amount)
		total = total.Add(amount)
		g.Items = append(g.Items, e)
	}

	groups := make([]ExpenseGroup, 0, len(groupsMap))
	for _, g := range groupsMap {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].timestamp > groups[j].timestamp })

	h.render(w, "expenses.html", ExpensesViewModel{
		Filter: filter,
		From:   from,
		To:     to,
		Total:  total,
		Groups: groups,
	})
}

// normalizeTimestamps re-derives each record's timestamp from its display
// date and rewrites records whose stored value differs. Records whose date no
// longer parses are left alone and logged.
func (h *Handlers) normalizeTimestamps(userID string) {
	expenses, err := h.db.ListExpenses(userID)
	if err != nil {
		slog.Error("load expenses for normalization", "user_id", userID, "error", err)
		return
	}
	for _, e := range expenses {
		ts, err := models.DateToTimestamp(e.Date)
		if err != nil {
			slog.Error("parse expense date", "expense_id", e.ID, "date", e.Date, "error", err)
			continue
		}
		if ts == e.Timestamp {
			continue
		}
		updated := e
		updated.Timestamp = ts
		if err := h.db.UpdateExpense(&updated); err != nil {
			slog.Error("update expense timestamp", "expense_id", e.ID, "error", err)
			continue
		}
		slog.Info("normalized expense timestamp", "expense_id", e.ID, "old", e.Timestamp, "new", ts)
	}
}

// NewExpenseForm renders the add-expense form.
func (h *Handlers) NewExpenseForm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	categories, err := h.effectiveCategories(user.ID)
	if err != nil {
		slog.Error("load categories", "user_id", user.ID, "error", err)
		http.Error(w, "Error accessing database", http.StatusInternalServerError)
		return
	}
	h.render(w, "expense_form.html", ExpenseFormViewModel{
		Categories: categories,
		Today:      time.Now().Format(models.DateLayout),
	})
}

// CreateExpense handles the add-expense form submission.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	renderError := func(msg string) {
		categories, err := h.effectiveCategories(user.ID)
		if err != nil {
			slog.Error("load categories", "user_id", user.ID, "error", err)
		}
		h.render(w, "expense_form.html", ExpenseFormViewModel{
			Categories: categories,
			Error:      msg,
			Today:      time.Now().Format(models.DateLayout),
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
	amountStr := strings.TrimSpace(r.FormValue("amount"))
	date := strings.TrimSpace(r.FormValue("date"))
	startTime := strings.TrimSpace(r.FormValue("start_time"))
	endTime := strings.TrimSpace(r.FormValue("end_time"))
	description := strings.TrimSpace(r.FormValue("description"))

	if category == "" || amountStr == "" || date == "" || startTime == "" || endTime == "" {
		slog.Warn("expense validation failed: empty fields", "user_id", user.ID)
		renderError("Please fill all required fields")
		return
	}

	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		slog.Warn("expense validation failed", "user_id", user.ID, "error", err)
		renderError("Invalid amount")
		return
	}

	timestamp, err := models.DateToTimestamp(date)
	if err != nil {
		slog.Error("parse expense date, falling back to today", "date", date, "error", err)
		timestamp = models.StartOfDayMilli(time.Now())
	}

	photoPath, err := h.savePhoto(r)
	if err != nil {
		slog.Error("save photo", "user_id", user.ID, "error", err)
		renderError("Error saving photo")
		return
	}

	expense := models.Expense{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Amount:      amount,
		Category:    category,
		CategoryID:  h.lookupCategoryID(user.ID, category),
		Type:        typ,
		Date:        date,
		Timestamp:   timestamp,
		StartTime:   startTime,
		EndTime:     endTime,
		Description: description,
		PhotoPath:   photoPath,
	}
	if err := expense.Validate(); err != nil {
		slog.Warn("expense validation failed", "user_id", user.ID, "error", err)
		renderError(err.Error())
		return
	}

	if err := h.db.CreateExpense(&expense); err != nil {
		slog.Error("create expense", "user_id", user.ID, "error", err)
		renderError("Error saving expense")
		return
	}

	slog.Info("expense saved", "expense_id", expense.ID, "user_id", user.ID,
		"category", expense.Category, "type", expense.Type, "amount", expense.Amount)
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

// savePhoto stores an optional uploaded photo and returns its reference,
// or "" when no photo was attached.
func (h *Handlers) savePhoto(r *http.Request) (string, error) {
	file, _, err := r.FormFile("photo")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(h.photoDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("JPEG_%s_%s.jpg", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	dst, err := os.Create(filepath.Join(h.photoDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return name, nil
}

// ViewPhoto serves a stored photo reference.
func (h *Handlers) ViewPhoto(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("name"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.photoDir, name))
}

func formatGroupTitle(timestampMilli int64) string {
	date := time.UnixMilli(timestampMilli)
	dateStr := date.Format("2006-01-02")
	nowStr := time.Now().Format("2006-01-02")

	if dateStr == nowStr {
		return "TODAY"
	}
	yesterdayStr := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if dateStr == yesterdayStr {
		return "YESTERDAY"
	}
	return strings.ToUpper(date.Format("Mon, 02 Jan '06"))
}
