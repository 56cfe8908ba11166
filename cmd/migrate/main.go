// Command migrate applies the walletwise schema to a Postgres database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/repository/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	databaseURL string
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the walletwise database schema",
	Long: `migrate applies the idempotent walletwise schema (users, wallets,
transactions) to the database named by --database-url or DATABASE_URL.

Example:
  migrate up
  migrate print > schema.sql`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create missing tables and indexes",
	RunE:  runUp,
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the schema DDL to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), postgres.Schema)
	},
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	upCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "maximum time to apply the schema")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(printCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	start := time.Now()
	if _, err := conn.Exec(ctx, postgres.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	log.Info().Dur("took", time.Since(start)).Msg("Schema applied")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}
