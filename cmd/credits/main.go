// Command credits grants credits to a user directly in the ledger, for
// support refunds and manual top-ups.
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

	"vydio/internal/adapter/repo"
	"vydio/internal/domain"
	"vydio/internal/infra"
)

func main() {
	var (
		userFlag  string
		emailFlag string
		grantFlag int
	)

	flag.StringVar(&userFlag, "user", "", "user ID to credit")
	flag.StringVar(&emailFlag, "email", "", "email stored when the user does not exist yet")
	flag.IntVar(&grantFlag, "grant", 0, "number of credits to add (must be positive)")
	flag.Parse()

	userID := strings.TrimSpace(userFlag)
	if userID == "" {
		exitWithError(errors.New("-user is required"))
	}
	if grantFlag <= 0 {
		exitWithError(errors.New("-grant must be positive"))
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

	logger := infra.NewLogger("cli").With().Str("cmd", "credits").Logger()
	store := repo.NewStore(infra.NewSQLRunner(pool, logger))

	var balance int
	err = store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Ledger().Upsert(ctx, userID, strings.TrimSpace(emailFlag)); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		b, err := tx.Ledger().Credit(ctx, userID, grantFlag)
		if err != nil {
			return fmt.Errorf("credit user: %w", err)
		}
		balance = b
		return nil
	})
	if err != nil {
		exitWithError(err)
	}

	logger.Info().Str("user_id", userID).Int("granted", grantFlag).Int("balance", balance).Msg("credits granted")
	fmt.Printf("User %s credited %d, balance=%d\n", userID, grantFlag, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
