package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Config controls rasterization and recognition. Zero values are filled with
// sensible defaults by NewEngine.
type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "deu"
	DPI         int    // rasterization DPI, default 300
	TessdataDir string

	// Segmentation strategies tried in order until one yields text.
	// Default: 6 (uniform block), 4 (columns), 3 (auto), 11 (sparse).
	PSMs []int

	// Preprocess runs grayscale/contrast/sharpen on the rendered page before
	// recognition. Recognition falls back to the raw image when it fails.
	Preprocess bool
}

// Engine recognizes text on single rasterized PDF pages.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "deu"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if len(cfg.PSMs) == 0 {
		cfg.PSMs = []int{6, 4, 3, 11}
	}
	return &Engine{cfg: cfg, runner: ExecRunner{}, logger: logger}
}

// WithRunner swaps the command runner; used by tests.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

// RecognizePage rasterizes exactly one page of the PDF and recognizes it.
// Total failure returns an empty string and no error: OCR is best-effort and
// the caller decides whether an empty page is acceptable.
func (e *Engine) RecognizePage(ctx context.Context, pdfPath string, page int) (string, error) {
	img, cleanup, err := e.rasterizePage(ctx, pdfPath, page)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		e.logger.Warn("page rasterization failed", "path", pdfPath, "page", page, "error", err)
		return "", nil
	}

	if e.cfg.Preprocess {
		if prepped, perr := preprocessImage(img); perr == nil {
			img = prepped
		} else {
			e.logger.Debug("image preprocessing unavailable, recognizing raw image",
				"path", pdfPath, "page", page, "error", perr)
		}
	}

	return e.recognizeImage(ctx, img, pdfPath, page), nil
}

// rasterizePage renders a single page to a temporary PNG via pdftoppm.
func (e *Engine) rasterizePage(ctx context.Context, pdfPath string, page int) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "fleetscan-ppm-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r DPI -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", fmt.Sprintf("%d", page),
		"-l", fmt.Sprintf("%d", page),
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-png", pdfPath, prefix)
	if err != nil {
		return "", cleanup, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", cleanup, fmt.Errorf("pdftoppm produced no image for page %d", page)
	}
	return matches[0], cleanup, nil
}

// recognizeImage tries each segmentation strategy in order and returns the
// first non-empty result. Strategy failures are logged and skipped.
func (e *Engine) recognizeImage(ctx context.Context, imgPath, pdfPath string, page int) string {
	for _, psm := range e.cfg.PSMs {
		txt, err := e.tesseract(ctx, imgPath, psm)
		if err != nil {
			e.logger.Debug("segmentation strategy failed",
				"path", pdfPath, "page", page, "psm", psm, "error", err)
			continue
		}
		txt = strings.TrimSpace(txt)
		if txt != "" {
			e.logger.Debug("ocr strategy succeeded", "path", pdfPath, "page", page, "psm", psm, "bytes", len(txt))
			return txt
		}
	}
	e.logger.Warn("all segmentation strategies yielded no text", "path", pdfPath, "page", page)
	return ""
}

func (e *Engine) tesseract(ctx context.Context, imgPath string, psm int) (string, error) {
	args := []string{imgPath, "stdout", "-l", e.cfg.Lang, "--psm", fmt.Sprintf("%d", psm)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang> --psm <n>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
