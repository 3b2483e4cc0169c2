package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/azharanas17/MyMoney-Notes/internal/identity"
	"github.com/azharanas17/MyMoney-Notes/internal/models"
	"github.com/azharanas17/MyMoney-Notes/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "mymoney.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> -email <email> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		var missing []string
		if *username == "" {
			missing = append(missing, "user")
		}
		if *email == "" {
			missing = append(missing, "email")
		}
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// Allow overriding db path via env var if not explicitly set via flag (flag default is used)
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "mymoney.db" {
		*dbPath = path
	}

	db, err := storage.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.GetUserByUsername(*username); err == nil {
		return fmt.Errorf("user %s already exists", *username)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	provider := identity.NewLocalProvider(db)
	userID, err := provider.SignUp(context.Background(), *email, password)
	if err != nil {
		return fmt.Errorf("failed to register credentials: %w", err)
	}

	user := models.User{ID: userID, Username: *username, Email: *email}
	if err := db.SaveUser(&user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with id %s\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
