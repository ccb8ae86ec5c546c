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

	"climatefund/internal/infra"
	"climatefund/internal/infra/credentials"
	"climatefund/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag    string
		secretFlag string
		deleteFlag bool
	)
	flag.StringVar(&keyFlag, "key", "", "Pinata API key (fallbacks to PINATA_API_KEY)")
	flag.StringVar(&secretFlag, "secret", "", "Pinata secret key (fallbacks to PINATA_SECRET_KEY)")
	flag.BoolVar(&deleteFlag, "delete", false, "remove the stored Pinata credentials")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	creds := credentials.Pinata{
		APIKey:    firstNonEmpty(keyFlag, os.Getenv("PINATA_API_KEY")),
		SecretKey: firstNonEmpty(secretFlag, os.Getenv("PINATA_SECRET_KEY")),
	}
	if !deleteFlag && creds.Empty() {
		fmt.Fprintln(os.Stderr, "Pinata API key and secret are required via -key/-secret or environment")
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

	logger := infra.NewLogger("cli").With().Str("cmd", "pinatakey").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure schema: %v\n", err)
		os.Exit(1)
	}
	store := credentials.NewStore(runner)

	if deleteFlag {
		if err := store.DeletePinata(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to delete pinata credentials: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Pinata credentials removed")
		return
	}
	if err := store.SetPinata(ctx, creds); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist pinata credentials: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Pinata credentials stored successfully")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
