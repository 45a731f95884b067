package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/fields"
	"github.com/mwerning/fleetscan/internal/ocr"
	"github.com/mwerning/fleetscan/internal/pipeline"
	"github.com/mwerning/fleetscan/internal/registry"
	"github.com/mwerning/fleetscan/internal/store"
	"github.com/mwerning/fleetscan/internal/textextract"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	var (
		db       = flag.String("db", cfg.Database.DSN, "database DSN (sqlite file path or postgres:// URL)")
		dir      = flag.String("dir", "", "directory of documents to import")
		forceOCR = flag.Bool("force-ocr", cfg.Pipeline.ForceOCR, "OCR every page regardless of text-layer quality")
		verbose  = flag.Bool("v", cfg.Pipeline.Verbose, "verbose trace logging")
		workers  = flag.Int("workers", cfg.Pipeline.Concurrency, "batch worker pool size")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	paths := flag.Args()
	if *dir == "" && len(paths) == 0 {
		printError("Error: pass document paths or --dir\n")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dir != "" {
		discovered, err := pipeline.DiscoverDocuments(*dir)
		if err != nil {
			printError("Error: scan %s: %v\n", *dir, err)
			os.Exit(1)
		}
		paths = append(paths, discovered...)
	}
	if len(paths) == 0 {
		printError("Error: no ingestable documents found\n")
		os.Exit(1)
	}

	database, err := store.Open(ctx, *db, cfg.Database.DialTimeout, logger)
	if err != nil {
		printError("Error: open database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	regStore := store.NewRegistryStore(database, logger)
	if err := regStore.Init(ctx); err != nil {
		printError("Error: init registry: %v\n", err)
		os.Exit(1)
	}

	// One registry snapshot per run; provisioning during the run updates it.
	cache := registry.NewCache()
	if err := cache.Load(ctx, regStore, logger); err != nil {
		printError("Error: load registry: %v\n", err)
		os.Exit(1)
	}
	matcher := registry.NewMatcher(cfg.Match.Threshold, cfg.Match.CoverageFloor)

	text := textextract.NewExtractor(cfg.OCR.Pdftotext, logger)
	engine := ocr.NewEngine(ocr.Config{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		Lang:        cfg.OCR.Lang,
		DPI:         cfg.OCR.DPI,
		Preprocess:  cfg.OCR.Preprocess,
	}, logger)
	extractor := fields.NewExtractor(fields.DefaultPatterns(), cache, logger)
	writer := store.NewImportWriter(database, regStore, cache, matcher, logger)

	p := pipeline.New(logger, text, text, engine, extractor, writer, database, pipeline.Config{
		MinTextLen:  cfg.Pipeline.MinTextLen,
		ForceOCR:    *forceOCR,
		Concurrency: *workers,
		Verbose:     *verbose,
	})

	sum := p.ProcessBatch(ctx, paths)

	fmt.Printf("run %s: %d ok, %d failed, %d inserted, %d skipped (%.1fs)\n",
		sum.RunID, sum.Succeeded, sum.Failed, sum.Inserted, sum.Skipped, sum.Duration.Seconds())
	for _, d := range sum.Documents {
		if d.Success {
			fmt.Printf("  ok   %-40s %s pages=%d records=%d inserted=%d skipped=%d\n",
				d.Document, d.Period.String(), d.TotalPages, d.TotalRecords, d.InsertedCount, d.SkippedDuplicates)
		} else {
			fmt.Printf("  FAIL %-40s %s\n", d.Document, d.Error)
		}
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
