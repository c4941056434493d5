package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecash-community/metachronik/internal/core/config"
	"github.com/ecash-community/metachronik/internal/core/domain"
	"github.com/ecash-community/metachronik/internal/infra/storage/postgres"
)

var reaggregateCmd = &cobra.Command{
	Use:   "reaggregate [date]",
	Short: "Rebuild the daily rollup for a given UTC date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	Run:   runReaggregate,
}

func init() {
	rootCmd.AddCommand(reaggregateCmd)
}

func runReaggregate(cmd *cobra.Command, args []string) {
	date := args[0]
	if _, err := domain.ParseDate(date); err != nil {
		fmt.Printf("Invalid date %q: %v\n", date, err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	// Recompute aggregates from the blocks table. A nil price leaves any
	// existing snapshot untouched.
	days := postgres.NewDayRepo(db)
	if err := days.UpsertFromBlocks(ctx, date, nil); err != nil {
		slog.Error("Failed to rebuild day", "date", date, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Rebuilt daily rollup for %s\n", date)
}
