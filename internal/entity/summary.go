package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSummary is the user-visible result of processing one document.
type DocumentSummary struct {
	Document          string
	Success           bool
	Period            PeriodKey
	TotalPages        int
	OCRPages          int
	TotalRecords      int
	InsertedCount     int
	SkippedDuplicates int
	Unmatched         int
	Error             string
}

// BatchSummary aggregates per-document summaries of one batch run.
type BatchSummary struct {
	RunID     uuid.UUID
	Documents []DocumentSummary
	Succeeded int
	Failed    int
	Inserted  int
	Skipped   int
	Duration  time.Duration
}

// Add folds a document summary into the batch totals.
func (b *BatchSummary) Add(d DocumentSummary) {
	b.Documents = append(b.Documents, d)
	if d.Success {
		b.Succeeded++
	} else {
		b.Failed++
	}
	b.Inserted += d.InsertedCount
	b.Skipped += d.SkippedDuplicates
}
