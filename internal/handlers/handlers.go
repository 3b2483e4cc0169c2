package handlers

import (
	"context"
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/azharanas17/MyMoney-Notes/internal/auth"
	"github.com/azharanas17/MyMoney-Notes/internal/identity"
	"github.com/azharanas17/MyMoney-Notes/internal/models"
	"github.com/azharanas17/MyMoney-Notes/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers. The store handle and the
// identity provider are constructed once in main and injected here.
type Handlers struct {
	db           *storage.DB
	provider     identity.Provider
	templateDir  string
	photoDir     string
	secureCookie bool
}

// New creates a new Handlers instance.
func New(db *storage.DB, provider identity.Provider, templateDir, photoDir string, secureCookie bool) *Handlers {
	return &Handlers{
		db:           db,
		provider:     provider,
		templateDir:  templateDir,
		photoDir:     photoDir,
		secureCookie: secureCookie,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		now := time.Now()
		if sessionInfo.ExpiresAt.Sub(now) < SessionDuration/2 {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthViewModel holds data for the login and signup pages.
type AuthViewModel struct {
	Error    string
	Notice   string
	Username string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the expenses screen
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/expenses", http.StatusFound)
			return
		}
	}

	vm := AuthViewModel{Username: r.URL.Query().Get("username")}
	if r.URL.Query().Get("created") == "1" {
		vm.Notice = "Signup successful, please login"
	}
	h.render(w, "login.html", vm)
}

// Login handles the login form submission. The username is a local alias:
// it is resolved to an email here before the provider verifies credentials.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.render(w, "login.html", AuthViewModel{Error: "Please fill username and password", Username: username})
		return
	}

	user, err := h.db.GetUserByUsername(username)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Warn("login for unknown username", "username", username)
		h.render(w, "login.html", AuthViewModel{Error: "Username not found", Username: username})
		return
	}
	if err != nil {
		slog.Error("look up user by username", "username", username, "error", err)
		h.render(w, "login.html", AuthViewModel{Error: "Error accessing user data", Username: username})
		return
	}

	userID, err := h.provider.SignIn(r.Context(), user.Email, password)
	if err != nil {
		slog.Warn("provider rejected sign-in", "username", username, "error", err)
		h.render(w, "login.html", AuthViewModel{Error: "Login failed: " + err.Error(), Username: username})
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.Error("generate session token", "error", err)
		h.render(w, "login.html", AuthViewModel{Error: "An error occurred. Please try again.", Username: username})
		return
	}

	if err := h.db.CreateSession(token, userID, time.Now().Add(SessionDuration)); err != nil {
		slog.Error("create session", "error", err)
		h.render(w, "login.html", AuthViewModel{Error: "An error occurred. Please try again.", Username: username})
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

// SignupForm renders the signup page.
func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "signup.html", AuthViewModel{})
}

// Signup registers an account with the identity provider and records the
// local username/email mapping used by future logins.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "signup.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := strings.TrimSpace(r.FormValue("password"))

	if username == "" || email == "" || password == "" {
		h.render(w, "signup.html", AuthViewModel{Error: "Please fill all fields", Username: username})
		return
	}

	if _, err := h.db.GetUserByUsername(username); err == nil {
		h.render(w, "signup.html", AuthViewModel{Error: "Username already taken", Username: username})
		return
	}

	userID, err := h.provider.SignUp(r.Context(), email, password)
	if err != nil {
		slog.Warn("provider rejected sign-up", "username", username, "error", err)
		h.render(w, "signup.html", AuthViewModel{Error: "Signup failed: " + err.Error(), Username: username})
		return
	}

	if err := h.db.SaveUser(&models.User{ID: userID, Username: username, Email: email}); err != nil {
		slog.Error("save user record", "username", username, "error", err)
		h.render(w, "signup.html", AuthViewModel{Error: "Error saving user data"})
		return
	}

	slog.Info("user signed up", "username", username, "user_id", userID)
	http.Redirect(w, r, "/login?created=1&username="+username, http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			slog.Error("delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// lookupCategoryID resolves a category name to its stored id at save time,
// falling back to the name itself when no stored category matches.
func (h *Handlers) lookupCategoryID(userID, name string) string {
	categories, err := h.db.ListCategories(userID)
	if err != nil {
		slog.Error("list categories for id lookup", "error", err)
		return name
	}
	for _, c := range categories {
		if c.Name == name {
			return strconv.FormatInt(c.ID, 10)
		}
	}
	return name
}

func (h *Handlers) effectiveCategories(userID string) ([]string, error) {
	stored, err := h.db.ListCategories(userID)
	if err != nil {
		return nil, err
	}
	return models.EffectiveCategories(stored), nil
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		slog.Error("parse templates", "view", viewName, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("execute template", "view", viewName, "error", err)
	}
}
