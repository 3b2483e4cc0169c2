package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azharanas17/MyMoney-Notes/internal/identity"
	"github.com/azharanas17/MyMoney-Notes/internal/models"
	"github.com/azharanas17/MyMoney-Notes/internal/storage"
)

const testTemplateDir = "../../web/templates"

func newTestHandlers(t *testing.T) (*Handlers, *storage.DB) {
	t.Helper()
	if _, err := os.Stat(filepath.Join(testTemplateDir, "base.html")); err != nil {
		t.Skip("templates not available:", err)
	}

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider := identity.NewLocalProvider(db)
	return New(db, provider, testTemplateDir, t.TempDir(), false), db
}

// seedUser registers an account and records the local user row, the same
// steps the signup handler performs.
func seedUser(t *testing.T, h *Handlers, username, email, password string) *models.User {
	t.Helper()
	id, err := h.provider.SignUp(context.Background(), email, password)
	require.NoError(t, err)
	u := &models.User{ID: id, Username: username, Email: email}
	require.NoError(t, h.db.SaveUser(u))
	return u
}

func authedRequest(user *models.User, method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
}

func multipartForm(t *testing.T, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func formRequest(method, target string, values url.Values) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func authedForm(user *models.User, target string, values url.Values) *http.Request {
	r := formRequest("POST", target, values)
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
}

func TestAuthMiddlewareRedirectsWithoutSession(t *testing.T) {
	h, _ := newTestHandlers(t)

	called := false
	mw := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest("GET", "/expenses", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAuthMiddlewarePassesUser(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")
	require.NoError(t, db.CreateSession("tok", user.ID, time.Now().Add(SessionDuration)))

	var got *models.User
	mw := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserFromContext(r)
	}))

	req := httptest.NewRequest("GET", "/expenses", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
}

func TestAuthMiddlewareRollingRenewal(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")
	// Past the halfway point of the session lifetime.
	require.NoError(t, db.CreateSession("tok", user.ID, time.Now().Add(time.Hour)))

	mw := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/expenses", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	info, err := db.ValidateSessionWithInfo("tok")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(SessionDuration), info.ExpiresAt, time.Minute)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
}

func TestSignupThenLogin(t *testing.T) {
	h, db := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Signup(rec, formRequest("POST", "/signup", url.Values{
		"username": {"alice"},
		"email":    {"alice@example.com"},
		"password": {"secret123"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?created=1&username=alice", rec.Header().Get("Location"))

	user, err := db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	rec = httptest.NewRecorder()
	h.Login(rec, formRequest("POST", "/login", url.Values{
		"username": {"alice"},
		"password": {"secret123"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)

	// The issued session resolves back to the user.
	got, err := db.ValidateSession(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestSignupDuplicateUsername(t *testing.T) {
	h, _ := newTestHandlers(t)
	seedUser(t, h, "alice", "alice@example.com", "secret123")

	rec := httptest.NewRecorder()
	h.Signup(rec, formRequest("POST", "/signup", url.Values{
		"username": {"alice"},
		"email":    {"other@example.com"},
		"password": {"secret123"},
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already taken")
}

func TestLoginUnknownUsername(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Login(rec, formRequest("POST", "/login", url.Values{
		"username": {"nobody"},
		"password": {"whatever1"},
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username not found")
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newTestHandlers(t)
	seedUser(t, h, "alice", "alice@example.com", "secret123")

	rec := httptest.NewRecorder()
	h.Login(rec, formRequest("POST", "/login", url.Values{
		"username": {"alice"},
		"password": {"wrongpass"},
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed")
}

func TestLogout(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")
	require.NoError(t, db.CreateSession("tok", user.ID, time.Now().Add(time.Hour)))

	req := httptest.NewRequest("GET", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, err := db.ValidateSession("tok")
	assert.Error(t, err)
}

func TestCreateExpenseAndList(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	body, contentType := multipartForm(t, map[string]string{
		"category":    "Food",
		"type":        "expense",
		"amount":      "25.50",
		"date":        "15/03/2024",
		"start_time":  "12:00",
		"end_time":    "13:00",
		"description": "lunch",
	})
	req := authedRequest(user, "POST", "/expenses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CreateExpense(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))

	saved, err := db.ListExpenses(user.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotEmpty(t, saved[0].ID)
	assert.Equal(t, "25.5", saved[0].Amount.String())
	assert.Equal(t, "Food", saved[0].CategoryID, "unstored category id falls back to the name")

	wantTS, err := models.DateToTimestamp("15/03/2024")
	require.NoError(t, err)
	assert.Equal(t, wantTS, saved[0].Timestamp)

	rec = httptest.NewRecorder()
	h.ListExpenses(rec, authedRequest(user, "GET", "/expenses", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lunch")
	assert.Contains(t, rec.Body.String(), "25.5")
}

func TestCreateExpenseMissingFields(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	body, contentType := multipartForm(t, map[string]string{
		"category": "Food",
		"amount":   "25.50",
	})
	req := authedRequest(user, "POST", "/expenses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CreateExpense(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please fill all required fields")

	saved, err := db.ListExpenses(user.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestCreateExpenseBadAmount(t *testing.T) {
	h, _ := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	body, contentType := multipartForm(t, map[string]string{
		"category":   "Food",
		"amount":     "-5",
		"date":       "15/03/2024",
		"start_time": "12:00",
		"end_time":   "13:00",
	})
	req := authedRequest(user, "POST", "/expenses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CreateExpense(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid amount")
}

func TestCreateExpenseBadDateFallsBackToToday(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	body, contentType := multipartForm(t, map[string]string{
		"category":   "Food",
		"amount":     "5",
		"date":       "not-a-date",
		"start_time": "12:00",
		"end_time":   "13:00",
	})
	req := authedRequest(user, "POST", "/expenses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CreateExpense(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	saved, err := db.ListExpenses(user.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, models.StartOfDayMilli(time.Now()), saved[0].Timestamp)
	assert.Equal(t, "not-a-date", saved[0].Date, "display date is kept as entered")
}

func TestListExpensesNormalizesTimestamps(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	stale := models.Expense{
		ID:        "e1",
		UserID:    user.ID,
		Category:  "Food",
		Type:      models.TypeExpense,
		Date:      "15/03/2024",
		Timestamp: 12345,
		StartTime: "09:00",
		EndTime:   "10:00",
	}
	require.NoError(t, db.CreateExpense(&stale))

	rec := httptest.NewRecorder()
	h.ListExpenses(rec, authedRequest(user, "GET", "/expenses", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := db.ListExpenses(user.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	wantTS, err := models.DateToTimestamp("15/03/2024")
	require.NoError(t, err)
	assert.Equal(t, wantTS, saved[0].Timestamp)
}

func TestListExpensesFilters(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	for _, e := range []struct {
		id, typ, date, desc string
	}{
		{"e1", models.TypeExpense, "10/03/2024", "groceries"},
		{"e2", models.TypeIncome, "11/03/2024", "salary"},
		{"e3", models.TypeExpense, "20/04/2024", "april rent"},
	} {
		ts, err := models.DateToTimestamp(e.date)
		require.NoError(t, err)
		require.NoError(t, db.CreateExpense(&models.Expense{
			ID: e.id, UserID: user.ID, Category: "Other", Type: e.typ,
			Date: e.date, Timestamp: ts, StartTime: "09:00", EndTime: "10:00",
			Description: e.desc,
		}))
	}

	rec := httptest.NewRecorder()
	h.ListExpenses(rec, authedRequest(user, "GET", "/expenses?filter=income", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "salary")
	assert.NotContains(t, body, "groceries")

	rec = httptest.NewRecorder()
	h.ListExpenses(rec, authedRequest(user, "GET", "/expenses?from=01/03/2024&to=31/03/2024", nil))
	body = rec.Body.String()
	assert.Contains(t, body, "groceries")
	assert.Contains(t, body, "salary")
	assert.NotContains(t, body, "april rent")
}

func TestAddCategory(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	rec := httptest.NewRecorder()
	h.AddCategory(rec, authedForm(user, "/categories", url.Values{"name": {"Groceries"}}))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/categories", rec.Header().Get("Location"))

	stored, err := db.ListCategories(user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Groceries", stored[0].Name)
}

func TestAddCategoryRejectsDuplicates(t *testing.T) {
	h, _ := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	post := func(name, returnTo string) *httptest.ResponseRecorder {
		values := url.Values{"name": {name}}
		if returnTo != "" {
			values.Set("return", returnTo)
		}
		rec := httptest.NewRecorder()
		h.AddCategory(rec, authedForm(user, "/categories", values))
		return rec
	}

	// Built-in duplicate
	rec := post("Food", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/categories?err=category", rec.Header().Get("Location"))

	// Fresh name, then the same name again
	rec = post("Groceries", "")
	assert.Equal(t, "/categories", rec.Header().Get("Location"))
	rec = post("Groceries", "")
	assert.Equal(t, "/categories?err=category", rec.Header().Get("Location"))

	// The return parameter routes the redirect back to the calling form
	rec = post("Food", "/expenses/new")
	assert.Equal(t, "/expenses/new?err=category", rec.Header().Get("Location"))
}

func TestCategoriesTotals(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	require.NoError(t, db.CreateExpense(&models.Expense{
		ID: "e1", UserID: user.ID, Category: "Food", Type: models.TypeExpense,
		Date: "10/03/2024", Timestamp: 1, StartTime: "09:00", EndTime: "10:00",
		Amount: mustDecimal(t, "100"),
	}))
	require.NoError(t, db.CreateExpense(&models.Expense{
		ID: "e2", UserID: user.ID, Category: "Salary", Type: models.TypeIncome,
		Date: "10/03/2024", Timestamp: 1, StartTime: "09:00", EndTime: "10:00",
		Amount: mustDecimal(t, "40"),
	}))

	rec := httptest.NewRecorder()
	h.Categories(rec, authedRequest(user, "GET", "/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Food")
	assert.Contains(t, body, "100")
	assert.Contains(t, body, "-40")
}

func TestCategoryExpenses(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	ts, err := models.DateToTimestamp("10/03/2024")
	require.NoError(t, err)
	require.NoError(t, db.CreateExpense(&models.Expense{
		ID: "e1", UserID: user.ID, Category: "Food", Type: models.TypeExpense,
		Date: "10/03/2024", Timestamp: ts, StartTime: "09:00", EndTime: "10:00",
		Description: "groceries", Amount: mustDecimal(t, "10"),
	}))

	req := authedRequest(user, "GET", "/categories/Food", nil)
	req.SetPathValue("name", "Food")
	rec := httptest.NewRecorder()
	h.CategoryExpenses(rec, req)
	assert.Contains(t, rec.Body.String(), "groceries")

	// A range with no matches shows the empty message.
	req = authedRequest(user, "GET", "/categories/Food?from=01/01/2020&to=31/01/2020", nil)
	req.SetPathValue("name", "Food")
	rec = httptest.NewRecorder()
	h.CategoryExpenses(rec, req)
	assert.Contains(t, rec.Body.String(), "No expenses found for Food in selected range")
}

func TestCreateGoal(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	body, contentType := multipartForm(t, map[string]string{
		"category": "Food",
		"type":     "expense",
		"min_goal": "100",
		"max_goal": "500",
	})
	req := authedRequest(user, "POST", "/goals", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CreateGoal(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/goals", rec.Header().Get("Location"))

	goals, err := db.ListGoals(user.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, models.CurrentMonth(time.Now()), goals[0].Month)
	assert.Equal(t, "500", goals[0].MaxGoal.String())
}

func TestCreateGoalRejectsBadBounds(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	for _, bounds := range [][2]string{{"500", "100"}, {"100", "100"}} {
		body, contentType := multipartForm(t, map[string]string{
			"category": "Food",
			"min_goal": bounds[0],
			"max_goal": bounds[1],
		})
		req := authedRequest(user, "POST", "/goals", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.CreateGoal(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Minimum goal must be less than maximum goal")
	}

	goals, err := db.ListGoals(user.ID)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestGoalsProgressScreen(t *testing.T) {
	h, db := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	month := models.CurrentMonth(time.Now())
	require.NoError(t, db.CreateGoal(&models.Goal{
		UserID: user.ID, Month: month, Category: "Food", Type: models.TypeExpense,
		MinGoal: mustDecimal(t, "0"), MaxGoal: mustDecimal(t, "100"),
	}))

	date := time.Now().Format(models.DateLayout)
	ts, err := models.DateToTimestamp(date)
	require.NoError(t, err)
	require.NoError(t, db.CreateExpense(&models.Expense{
		ID: "e1", UserID: user.ID, Category: "Food", Type: models.TypeExpense,
		Date: date, Timestamp: ts, StartTime: "09:00", EndTime: "10:00",
		Amount: mustDecimal(t, "150"),
	}))

	rec := httptest.NewRecorder()
	h.Goals(rec, authedRequest(user, "GET", "/goals", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "overspent")
	assert.Contains(t, body, "150/100")
}

func TestViewPhotoRejectsTraversal(t *testing.T) {
	h, _ := newTestHandlers(t)
	user := seedUser(t, h, "alice", "alice@example.com", "secret123")

	req := authedRequest(user, "GET", "/photos/x", nil)
	req.SetPathValue("name", "../secret.txt")
	rec := httptest.NewRecorder()
	h.ViewPhoto(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
