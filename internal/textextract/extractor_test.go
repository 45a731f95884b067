package textextract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwerning/fleetscan/internal/common"
)

type stubRunner struct {
	out  []byte
	err  error
	args []string
}

func (s *stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	s.args = args
	return s.out, nil, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBrokenPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broken_07_2025.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
	return path
}

func TestExtractPagesFallsBackToPdftotext(t *testing.T) {
	stub := &stubRunner{out: []byte("Seite eins\nName: Hans Meier\fSeite zwei")}
	e := NewExtractor("pdftotext", testLogger()).WithRunner(stub)

	pages, count, err := e.ExtractPages(context.Background(), writeBrokenPDF(t))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "Seite eins\nName: Hans Meier", pages[1])
	assert.Equal(t, "Seite zwei", pages[2])
	assert.Contains(t, stub.args, "-layout")
	assert.Contains(t, stub.args, "-")
}

// pdftotext terminates the last page with a form feed; the split must not
// turn that into a phantom empty page.
func TestExtractPagesPdftotextTrailingFormFeed(t *testing.T) {
	stub := &stubRunner{out: []byte("Seite eins\fSeite zwei\f")}
	e := NewExtractor("pdftotext", testLogger()).WithRunner(stub)

	pages, count, err := e.ExtractPages(context.Background(), writeBrokenPDF(t))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "Seite zwei", pages[2])
	_, ok := pages[3]
	assert.False(t, ok)
}

func TestExtractPagesNoFallbackConfigured(t *testing.T) {
	e := NewExtractor("", testLogger())

	_, _, err := e.ExtractPages(context.Background(), writeBrokenPDF(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPageExtraction))
}

func TestExtractPagesFallbackAlsoFails(t *testing.T) {
	stub := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor("pdftotext", testLogger()).WithRunner(stub)

	_, _, err := e.ExtractPages(context.Background(), writeBrokenPDF(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPageExtraction))
}

func TestExtractPagesMissingFile(t *testing.T) {
	e := NewExtractor("", testLogger())

	_, _, err := e.ExtractPages(context.Background(), filepath.Join(t.TempDir(), "nope_07_2025.pdf"))
	assert.Error(t, err)
}
