package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/awonak/pool-party/internal/adapter/repo"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
)

func main() {
	var (
		titleFlag    string
		headlineFlag string
	)
	flag.StringVar(&titleFlag, "title", "", "site title (unchanged when empty)")
	flag.StringVar(&headlineFlag, "headline", "", "site headline (unchanged when empty)")
	flag.Parse()

	_ = godotenv.Load()

	title := strings.TrimSpace(titleFlag)
	headline := strings.TrimSpace(headlineFlag)
	if title == "" && headline == "" {
		fmt.Fprintln(os.Stderr, "-title or -headline is required")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "siteconfig").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if err := repo.EnsureSchema(ctx, runner); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare schema: %v\n", err)
		os.Exit(1)
	}
	sites := repo.NewSiteRepository(runner, domain.Site{})

	current, err := sites.GetSite(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load site: %v\n", err)
		os.Exit(1)
	}
	if title != "" {
		current.Title = title
	}
	if headline != "" {
		current.Headline = headline
	}
	saved, err := sites.SaveSite(ctx, current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to save site: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Site updated: %q / %q\n", saved.Title, saved.Headline)
}
