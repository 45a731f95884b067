package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/export"
	"github.com/mwerning/fleetscan/internal/pipeline"
	"github.com/mwerning/fleetscan/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	var (
		db     = flag.String("db", cfg.Database.DSN, "database DSN (sqlite file path or postgres:// URL)")
		period = flag.String("period", "", "period to export, e.g. 07_2025 (required)")
		out    = flag.String("out", "", "output XLSX path (default <period>.xlsx)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *period == "" {
		fmt.Fprintln(os.Stderr, "Error: --period is required")
		os.Exit(1)
	}
	key, err := pipeline.ParsePeriod(*period + ".pdf")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid period %q, expected MM_YYYY\n", *period)
		os.Exit(1)
	}
	if *out == "" {
		*out = key.TableName() + ".xlsx"
	}

	ctx := context.Background()
	database, err := store.Open(ctx, *db, cfg.Database.DialTimeout, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	data, err := export.NewService(database, logger).PeriodXLSX(ctx, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: export %s: %v\n", key.String(), err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}
