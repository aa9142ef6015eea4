package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/awonak/pool-party/internal/adapter/repo"
	"github.com/awonak/pool-party/internal/auth"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
)

func main() {
	var (
		idFlag     string
		emailFlag  string
		firstFlag  string
		lastFlag   string
		revokeFlag bool
		tokenFlag  bool
	)

	flag.StringVar(&idFlag, "id", "", "user ID (identity provider subject)")
	flag.StringVar(&emailFlag, "email", "", "user email; with -id the user is created or updated")
	flag.StringVar(&firstFlag, "first", "", "first name when creating the user")
	flag.StringVar(&lastFlag, "last", "", "last name when creating the user")
	flag.BoolVar(&revokeFlag, "revoke", false, "revoke moderator rights instead of granting them")
	flag.BoolVar(&tokenFlag, "token", false, "print a session token for the user (needs JWT_SECRET)")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "moderator").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if err := repo.EnsureSchema(ctx, runner); err != nil {
		exitWithError(err)
	}
	users := repo.NewUserRepository(runner)

	var user *domain.User
	switch {
	case userID != "" && email != "":
		user, err = users.UpsertUser(ctx, domain.User{ID: userID, Email: email, FirstName: strings.TrimSpace(firstFlag), LastName: strings.TrimSpace(lastFlag)})
	case userID != "":
		user, err = users.GetByID(ctx, userID)
	default:
		user, err = users.GetByEmail(ctx, email)
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user: %w", err))
	}

	user, err = users.SetModerator(ctx, user.ID, !revokeFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user: %w", err))
	}
	fmt.Printf("User %s (%s) moderator=%t\n", user.ID, user.Email, user.IsModerator)

	if tokenFlag {
		issuer, err := auth.NewTokenIssuer(os.Getenv("JWT_SECRET"), 24*time.Hour)
		if err != nil {
			exitWithError(err)
		}
		token, err := issuer.Sign(user.ID, user.DisplayName(), user.Email)
		if err != nil {
			exitWithError(fmt.Errorf("failed to sign token: %w", err))
		}
		fmt.Println(token)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
