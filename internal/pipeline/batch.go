package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwerning/fleetscan/constants"
	"github.com/mwerning/fleetscan/internal/entity"
)

// DiscoverDocuments lists ingestable files directly under dir, skipping
// hidden files and unknown extensions.
func DiscoverDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || constants.IsHidden(e.Name()) {
			continue
		}
		if !constants.AllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ProcessBatch runs each document independently across a bounded worker pool.
// One bad document never blocks the rest. Cancelling the context stops
// scheduling new documents but lets in-flight ones finish, so no period is
// left partially written by a cancel.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string) entity.BatchSummary {
	start := time.Now()
	sum := entity.BatchSummary{RunID: uuid.New()}
	p.logger.Info("batch started", "run_id", sum.RunID, "documents", len(paths), "concurrency", p.cfg.Concurrency)

	jobs := make(chan string)
	results := make(chan entity.DocumentSummary)

	// Documents already running must not be interrupted mid-write.
	docCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- p.ProcessDocument(docCtx, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case <-ctx.Done():
				p.logger.Warn("batch cancelled, not scheduling remaining documents", "run_id", sum.RunID)
				return
			case jobs <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		sum.Add(r)
	}

	sum.Duration = time.Since(start)
	p.logger.Info("batch finished",
		"run_id", sum.RunID,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"duration", sum.Duration,
	)
	return sum
}
