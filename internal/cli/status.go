package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecash-community/metachronik/internal/core/config"
	"github.com/ecash-community/metachronik/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of the block mirror",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	var blocks, days int64
	var tip, tipTS int64
	if err := db.GetContext(ctx, &blocks, "SELECT COUNT(*) FROM blocks"); err != nil {
		slog.Error("Failed to query blocks", "error", err)
		os.Exit(1)
	}
	_ = db.GetContext(ctx, &days, "SELECT COUNT(*) FROM days")
	_ = db.GetContext(ctx, &tip, "SELECT COALESCE(MAX(height), 0) FROM blocks")
	_ = db.GetContext(ctx, &tipTS, "SELECT COALESCE(timestamp, 0) FROM blocks WHERE height = (SELECT MAX(height) FROM blocks)")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "MIRROR HEIGHT\tBLOCKS\tDAYS\tTIP TIME")
	tipTime := "-"
	if tipTS > 0 {
		tipTime = time.Unix(tipTS, 0).UTC().Format(time.RFC3339)
	}
	_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", tip, blocks, days, tipTime)
	_ = w.Flush()
}
