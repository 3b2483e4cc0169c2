package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/azharanas17/MyMoney-Notes/internal/config"
	"github.com/azharanas17/MyMoney-Notes/internal/handlers"
	"github.com/azharanas17/MyMoney-Notes/internal/identity"
	"github.com/azharanas17/MyMoney-Notes/internal/models"
	"github.com/azharanas17/MyMoney-Notes/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Optional .env for local runs
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.DeleteExpiredSessions(); err != nil {
		logger.Warn("Failed to clean up expired sessions", "error", err)
	}

	provider := identity.NewLocalProvider(db)

	if err := seedAdmin(db, provider, cfg); err != nil {
		logger.Error("Failed to seed admin account", "error", err)
		os.Exit(1)
	}

	h := handlers.New(db, provider, cfg.TemplateDir, cfg.PhotoDir, cfg.SecureCookie)
	mux := setupRouter(h, cfg.StaticDir)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Server listening", "port", cfg.Port, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// setupRouter wires all routes. Everything past the auth screens requires a
// valid session.
func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /signup", h.SignupForm)
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("GET /logout", h.Logout)

	mux.Handle("GET /expenses", h.AuthMiddleware(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("GET /expenses/new", h.AuthMiddleware(http.HandlerFunc(h.NewExpenseForm)))
	mux.Handle("POST /expenses", h.AuthMiddleware(http.HandlerFunc(h.CreateExpense)))

	mux.Handle("GET /categories", h.AuthMiddleware(http.HandlerFunc(h.Categories)))
	mux.Handle("POST /categories", h.AuthMiddleware(http.HandlerFunc(h.AddCategory)))
	mux.Handle("GET /categories/{name}", h.AuthMiddleware(http.HandlerFunc(h.CategoryExpenses)))

	mux.Handle("GET /goals", h.AuthMiddleware(http.HandlerFunc(h.Goals)))
	mux.Handle("GET /goals/new", h.AuthMiddleware(http.HandlerFunc(h.NewGoalForm)))
	mux.Handle("POST /goals", h.AuthMiddleware(http.HandlerFunc(h.CreateGoal)))

	mux.Handle("GET /photos/{name}", h.AuthMiddleware(http.HandlerFunc(h.ViewPhoto)))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/expenses", http.StatusFound)
	})

	return mux
}

// seedAdmin creates the configured bootstrap account when the store is empty.
func seedAdmin(db *storage.DB, provider identity.Provider, cfg *config.Config) error {
	if cfg.AdminUser == "" {
		return nil
	}
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if _, err := db.GetUserByUsername(cfg.AdminUser); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	userID, err := provider.SignUp(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if err := db.SaveUser(&models.User{ID: userID, Username: cfg.AdminUser, Email: cfg.AdminEmail}); err != nil {
		return err
	}
	slog.Info("Seeded admin account", "username", cfg.AdminUser)
	return nil
}
