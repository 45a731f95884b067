package textextract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Word is one positioned text fragment of a page. Y grows upward in PDF user
// space, so visually higher lines have larger Y.
type Word struct {
	Text string
	X    float64
	Y    float64
}

// HeaderWords returns the positioned words of one page, grouped into visual
// lines (top to bottom, left to right). It backs the positional header
// extraction for layouts where label and value sit side by side and are not
// contiguous in text order.
func (e *Extractor) HeaderWords(path string, page int) (words []Word, err error) {
	defer func() {
		if r := recover(); r != nil {
			words = nil
			err = fmt.Errorf("pdf content panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if page < 1 || page > r.NumPage() {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	p := r.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}

	content := p.Content()
	for _, t := range content.Text {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		words = append(words, Word{Text: s, X: t.X, Y: t.Y})
	}
	sortWords(words)
	return words, nil
}

// sortWords orders words top-to-bottom, then left-to-right, snapping Y to a
// small tolerance so fragments of one visual line stay together.
func sortWords(words []Word) {
	const yTol = 2.0
	sort.SliceStable(words, func(i, j int) bool {
		if di := words[i].Y - words[j].Y; di > yTol || di < -yTol {
			return words[i].Y > words[j].Y
		}
		return words[i].X < words[j].X
	})
}

// GroupLines joins sorted words into visual text lines.
func GroupLines(words []Word) []string {
	const yTol = 2.0
	var lines []string
	var cur []string
	var curY float64
	for i, w := range words {
		if i == 0 {
			cur = []string{w.Text}
			curY = w.Y
			continue
		}
		if d := curY - w.Y; d > yTol || d < -yTol {
			lines = append(lines, strings.Join(cur, " "))
			cur = []string{w.Text}
			curY = w.Y
			continue
		}
		cur = append(cur, w.Text)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}
