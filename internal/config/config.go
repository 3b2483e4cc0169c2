package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the server reads from the environment.
type Config struct {
	// HTTP server
	Port string

	// Storage
	DBPath   string
	PhotoDir string

	// Presentation
	TemplateDir string
	StaticDir   string

	// Session cookie
	SecureCookie bool

	// Optional seed account, created at startup when the store has no users.
	AdminUser     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DBPath:      getEnv("DB_PATH", "./data/mymoney.db"),
		PhotoDir:    getEnv("PHOTO_DIR", "./data/photos"),
		TemplateDir: getEnv("TEMPLATE_DIR", "./web/templates"),
		StaticDir:   getEnv("STATIC_DIR", "./web/static"),

		SecureCookie: getEnvBool("SECURE_COOKIE", false),

		AdminUser:     getEnv("ADMIN_USER", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// Validate checks the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if c.TemplateDir == "" {
		problems = append(problems, "template directory cannot be empty")
	}
	if c.AdminUser != "" && (c.AdminEmail == "" || c.AdminPassword == "") {
		problems = append(problems, "ADMIN_USER requires ADMIN_EMAIL and ADMIN_PASSWORD")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
