// Package textextract recovers text from a document's digital content layer.
// It is always attempted before OCR because it is exact and cheap; OCR is a
// per-page fallback decided by the orchestrator.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/ocr"
)

// Extractor reads the text layer page by page. Internal failures are caught
// and yield partial results; a page without a text layer maps to "".
type Extractor struct {
	logger *slog.Logger

	// Pdftotext is the fallback binary used when the pure-Go reader cannot
	// open the file at all. Empty disables the fallback.
	Pdftotext string
	runner    ocr.Runner
}

func NewExtractor(pdftotext string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger, Pdftotext: pdftotext, runner: ocr.ExecRunner{}}
}

// WithRunner swaps the command runner; used by tests.
func (e *Extractor) WithRunner(r ocr.Runner) *Extractor {
	e.runner = r
	return e
}

// ExtractPages returns page number -> extracted text (1-based) and the page
// count. Per-page extraction failures yield an empty string for that page,
// never an error; only a completely unreadable file fails.
func (e *Extractor) ExtractPages(ctx context.Context, path string) (map[int]string, int, error) {
	pages, count, err := e.extractNative(path)
	if err == nil {
		return pages, count, nil
	}
	e.logger.Warn("native text extraction failed, trying pdftotext", "path", path, "error", err)

	if e.Pdftotext == "" {
		return nil, 0, fmt.Errorf("%w: read pdf %s: %w", common.ErrPageExtraction, path, err)
	}
	pages, count, ferr := e.extractPdftotext(ctx, path)
	if ferr != nil {
		e.logger.Warn("pdftotext fallback failed", "path", path, "error", ferr)
		return nil, 0, fmt.Errorf("%w: read pdf %s: %w", common.ErrPageExtraction, path, err)
	}
	return pages, count, nil
}

func (e *Extractor) extractNative(path string) (result map[int]string, count int, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result, count = nil, 0
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	count = r.NumPage()
	result = make(map[int]string, count)
	for i := 1; i <= count; i++ {
		result[i] = e.pageText(r, i, path)
	}
	return result, count, nil
}

// pageText extracts one page, converting panics and errors into "".
func (e *Extractor) pageText(r *pdf.Reader, num int, path string) (txt string) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("page text extraction panicked", "path", path, "page", num, "panic", rec)
			txt = ""
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		return ""
	}
	s, err := p.GetPlainText(nil)
	if err != nil {
		e.logger.Warn("page text extraction failed", "path", path, "page", num, "error", err)
		return ""
	}
	return s
}

// extractPdftotext shells out to pdftotext, splitting pages on form feeds.
func (e *Extractor) extractPdftotext(ctx context.Context, path string) (map[int]string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, 0, fmt.Errorf("pdftotext: %w (%s)", err, strings.TrimSpace(string(errb)))
	}
	// pdftotext terminates the last page with a form feed; splitting on it
	// as-is would fabricate an empty trailing page.
	chunks := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	pages := make(map[int]string, len(chunks))
	for i, c := range chunks {
		pages[i+1] = c
	}
	return pages, len(chunks), nil
}
