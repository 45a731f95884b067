// Package pipeline sequences text recovery, field extraction, entity
// reconciliation and persistence per document and per batch.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mwerning/fleetscan/constants"
	"github.com/mwerning/fleetscan/internal/entity"
	"github.com/mwerning/fleetscan/internal/fields"
	"github.com/mwerning/fleetscan/internal/store"
	"github.com/mwerning/fleetscan/internal/textextract"
)

// PageTextSource recovers the document's text layer, page by page. Any
// component honoring the page->text contract may be substituted.
type PageTextSource interface {
	ExtractPages(ctx context.Context, path string) (map[int]string, int, error)
}

// HeaderSource provides positioned words of one page for the first-page
// positional header fallback. Optional.
type HeaderSource interface {
	HeaderWords(path string, page int) ([]textextract.Word, error)
}

// PageRecognizer OCRs a single page. Optional; without it, low-text pages
// stay as extracted.
type PageRecognizer interface {
	RecognizePage(ctx context.Context, path string, page int) (string, error)
}

// Config parameterizes the one pipeline: extraction mode and verbosity are
// flags here, not parallel pipeline variants.
type Config struct {
	// MinTextLen is the OCR trigger: a page whose direct-extracted text is
	// shorter falls back to OCR for that page only.
	MinTextLen int
	// ForceOCR recognizes every page regardless of text-layer quality.
	ForceOCR bool
	// Concurrency bounds the batch worker pool.
	Concurrency int
	// Verbose enables per-line trace logging.
	Verbose bool
}

// Pipeline is the per-document orchestrator:
// ParseFilename -> ExtractText -> ExtractFields -> MatchAndWrite -> Summarize.
type Pipeline struct {
	logger *slog.Logger
	text   PageTextSource
	header HeaderSource
	ocr    PageRecognizer
	fields *fields.Extractor
	writer *store.ImportWriter
	db     *store.DB
	cfg    Config

	// Period-table writes and registry provisioning follow a single-writer
	// discipline even when the batch pool runs documents concurrently.
	writeMu sync.Mutex
}

func New(
	logger *slog.Logger,
	text PageTextSource,
	header HeaderSource,
	ocr PageRecognizer,
	fx *fields.Extractor,
	writer *store.ImportWriter,
	db *store.DB,
	cfg Config,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 40
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		logger: logger,
		text:   text,
		header: header,
		ocr:    ocr,
		fields: fx,
		writer: writer,
		db:     db,
		cfg:    cfg,
	}
}

// ProcessDocument runs the full per-document state machine. Page failures are
// logged and skipped; only an unrecognized filename, an unreadable file or a
// persistence failure fail the document.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) entity.DocumentSummary {
	sum := entity.DocumentSummary{Document: filepath.Base(path)}

	period, err := ParsePeriod(path)
	if err != nil {
		p.logger.Error("cannot derive period from filename", "path", path, "error", err)
		sum.Error = err.Error()
		return sum
	}
	sum.Period = period

	pages, count, err := p.text.ExtractPages(ctx, path)
	if err != nil {
		p.logger.Error("document unreadable", "path", path, "error", err)
		sum.Error = err.Error()
		return sum
	}
	doc := entity.SourceDocument{Path: path, Period: period, PageCount: count}
	sum.TotalPages = count
	p.logger.Debug("text layer extracted",
		"path", path, "pages", count, "method", constants.MethodTextLayer)

	sum.OCRPages = p.recoverLowTextPages(ctx, doc, pages)
	defs := p.headerDefaults(path, pages[1])

	if err := p.matchAndWrite(ctx, doc, pages, defs, &sum); err != nil {
		sum.Error = err.Error()
		return sum
	}

	sum.Success = true
	p.logger.Info("document processed",
		"document", sum.Document,
		"period", period.String(),
		"pages", sum.TotalPages,
		"ocr_pages", sum.OCRPages,
		"records", sum.TotalRecords,
		"inserted", sum.InsertedCount,
		"skipped_duplicates", sum.SkippedDuplicates,
		"unmatched", sum.Unmatched,
	)
	return sum
}

// recoverLowTextPages lazily OCRs only the pages whose direct-extracted text
// is missing or below the minimum length. Clean pages never invoke OCR.
// Returns the number of pages whose text was actually replaced by OCR output.
func (p *Pipeline) recoverLowTextPages(ctx context.Context, doc entity.SourceDocument, pages map[int]string) int {
	if p.ocr == nil {
		return 0
	}
	ocrPages := 0
	for page := 1; page <= doc.PageCount; page++ {
		txt := pages[page]
		if !p.cfg.ForceOCR && len(strings.TrimSpace(txt)) >= p.cfg.MinTextLen {
			continue
		}
		recognized, err := p.ocr.RecognizePage(ctx, doc.Path, page)
		if err != nil {
			p.logger.Warn("page ocr failed, keeping direct text",
				"path", doc.Path, "page", page, "error", err, "snippet", snippet(txt))
			continue
		}
		if len(strings.TrimSpace(recognized)) <= len(strings.TrimSpace(txt)) {
			continue
		}
		pages[page] = recognized
		ocrPages++
		p.logger.Debug("page text recovered",
			"path", doc.Path, "page", page, "method", constants.MethodOCR, "bytes", len(recognized))
	}
	return ocrPages
}

// headerDefaults derives document-wide default name/id from the first page.
// When label-based search fails outright, positioned words are regrouped into
// visual lines to cover layouts where label and value sit side by side.
func (p *Pipeline) headerDefaults(path, firstPage string) fields.Defaults {
	probe := p.fields.ExtractPage(firstPage, 1, fields.Defaults{})
	if len(probe) > 0 {
		return fields.Defaults{Name: probe[0].Name, ExternalID: probe[0].ExternalID}
	}
	if p.header == nil {
		return fields.Defaults{}
	}

	words, err := p.header.HeaderWords(path, 1)
	if err != nil || len(words) == 0 {
		if err != nil {
			p.logger.Debug("positional header extraction unavailable", "path", path, "error", err)
		}
		return fields.Defaults{}
	}
	text := strings.Join(textextract.GroupLines(words), "\n")
	probe = p.fields.ExtractPage(text, 1, fields.Defaults{})
	if len(probe) == 0 {
		return fields.Defaults{}
	}
	p.logger.Debug("recovered header defaults from word positions",
		"path", path, "name", probe[0].Name, "external_id", probe[0].ExternalID)
	return fields.Defaults{Name: probe[0].Name, ExternalID: probe[0].ExternalID}
}

// matchAndWrite extracts fields page by page and persists them inside one
// transaction so a crash never leaves a half-written period.
func (p *Pipeline) matchAndWrite(
	ctx context.Context,
	doc entity.SourceDocument,
	pages map[int]string,
	defs fields.Defaults,
	sum *entity.DocumentSummary,
) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	tx, err := p.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	t := p.writer.Begin(tx)

	rollback := func() {
		_ = tx.Rollback()
		t.DiscardProvisioned()
	}

	if err := t.EnsurePeriodTable(ctx, doc.Period); err != nil {
		rollback()
		return err
	}

	// Writer application preserves page order for deterministic audit trails.
	pageNums := make([]int, 0, doc.PageCount)
	for page := 1; page <= doc.PageCount; page++ {
		pageNums = append(pageNums, page)
	}
	sort.Ints(pageNums)

	for _, page := range pageNums {
		recs := p.fields.ExtractPage(pages[page], page, defs)
		if len(recs) == 0 {
			if p.cfg.Verbose {
				p.logger.Debug("no fields found on page", "path", doc.Path, "page", page, "snippet", snippet(pages[page]))
			}
			continue
		}
		sum.TotalRecords += len(recs)

		for _, rec := range recs {
			outcome, werr := t.Write(ctx, doc.Period, rec)
			if werr != nil {
				p.logger.Error("persistence failed, rolling back document",
					"path", doc.Path, "page", page, "error", werr)
				rollback()
				return werr
			}
			switch {
			case outcome.SkippedDuplicate:
				sum.SkippedDuplicates++
			case outcome.Inserted:
				sum.InsertedCount++
				if outcome.ReferenceID == nil {
					sum.Unmatched++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		t.DiscardProvisioned()
		return err
	}
	return nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
