// Package fields turns recovered page text into fixed-schema field records
// using ordered regex cascades with synonym fallbacks.
package fields

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mwerning/fleetscan/internal/entity"
)

// Registry is the read-only registry view the extractor needs: when a record
// carries a valid external id known to the registry, the registry's canonical
// name overrides whatever name OCR produced.
type Registry interface {
	CanonicalNameByID(id int64) (string, bool)
}

// Defaults carries page- or document-level header values used to fill fields
// that individual records are missing.
type Defaults struct {
	Name       string
	ExternalID string
}

// Extractor scans page text for field records.
type Extractor struct {
	patterns *PatternSet
	registry Registry
	logger   *slog.Logger
}

func NewExtractor(p *PatternSet, reg Registry, logger *slog.Logger) *Extractor {
	if p == nil {
		p = DefaultPatterns()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{patterns: p, registry: reg, logger: logger}
}

// partial accumulates one in-progress record. Fields are explicitly optional
// so "not seen" and "seen but empty" stay distinguishable until finalize.
type partial struct {
	name       *string
	externalID *string
	gross      *string
	net        *string
	anchorLine int
}

func (p *partial) anyField() bool {
	return p.name != nil || p.externalID != nil || p.gross != nil || p.net != nil
}

// ExtractPage scans one page and returns zero or more field records.
//
// Pass 1 walks non-empty lines with the primary patterns; a new name anchor
// while a prior record is partially filled flushes that record. Pass 2 fills
// still-missing fields from synonym patterns. If no record was found at all,
// a whole-page aggregate search is the last resort.
func (e *Extractor) ExtractPage(text string, page int, defs Defaults) []entity.FieldRecord {
	lines := strings.Split(text, "\n")

	parts := e.scanLines(lines, e.patterns.Name, e.patterns.ExternalID, e.patterns.Gross, e.patterns.Net)
	if len(parts) == 0 {
		// Pages labelled exclusively with alternate terms anchor on the
		// synonym cascade instead.
		parts = e.scanLines(lines, e.patterns.NameSyn, e.patterns.ExternalIDSyn, e.patterns.GrossSyn, e.patterns.NetSyn)
	} else {
		e.scanSynonyms(lines, parts)
	}

	if len(parts) == 0 {
		if p := e.aggregateSearch(text); p != nil {
			parts = append(parts, p)
		}
	}

	var out []entity.FieldRecord
	for _, p := range parts {
		rec := e.finalize(p, lines, page, defs)
		if rec.Empty() {
			e.logger.Debug("dropping empty record", "page", page, "line", p.anchorLine+1)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (e *Extractor) scanLines(lines []string, namePat, idPat, grossPat, netPat []*regexp.Regexp) []*partial {
	var parts []*partial
	var cur *partial

	flush := func() {
		if cur != nil && cur.anyField() {
			parts = append(parts, cur)
		}
		cur = nil
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		name := cleanName(firstMatch(namePat, line))
		id := firstMatch(idPat, line)
		gross := firstMatch(grossPat, line)
		net := firstMatch(netPat, line)

		if name != "" && cur != nil && cur.anyField() {
			flush()
		}
		if name == "" && id == "" && gross == "" && net == "" {
			continue
		}
		if cur == nil {
			cur = &partial{anchorLine: i}
		}
		setIfMissing(&cur.name, name)
		setIfMissing(&cur.externalID, id)
		setIfMissing(&cur.gross, gross)
		setIfMissing(&cur.net, net)
	}
	flush()
	return parts
}

// scanSynonyms re-scans the page with alternate labels, merging hits into the
// record whose anchor most closely precedes the matching line.
func (e *Extractor) scanSynonyms(lines []string, parts []*partial) {
	if len(parts) == 0 {
		return
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p := partialFor(parts, i)
		if p.name == nil {
			if v := cleanName(firstMatch(e.patterns.NameSyn, line)); v != "" {
				p.name = &v
			}
		}
		if p.externalID == nil {
			if v := firstMatch(e.patterns.ExternalIDSyn, line); v != "" {
				p.externalID = &v
			}
		}
		if p.gross == nil {
			if v := firstMatch(e.patterns.GrossSyn, line); v != "" {
				p.gross = &v
			}
		}
		if p.net == nil {
			if v := firstMatch(e.patterns.NetSyn, line); v != "" {
				p.net = &v
			}
		}
	}
}

// aggregateSearch runs the cascades once against the whole page text.
func (e *Extractor) aggregateSearch(text string) *partial {
	p := &partial{}
	if v := cleanName(firstMatch(e.patterns.Name, text)); v != "" {
		p.name = &v
	} else if v := cleanName(firstMatch(e.patterns.NameSyn, text)); v != "" {
		p.name = &v
	}
	if v := firstMatch(e.patterns.ExternalID, text); v != "" {
		p.externalID = &v
	} else if v := firstMatch(e.patterns.ExternalIDSyn, text); v != "" {
		p.externalID = &v
	}
	if v := firstMatch(e.patterns.Gross, text); v != "" {
		p.gross = &v
	} else if v := firstMatch(e.patterns.GrossSyn, text); v != "" {
		p.gross = &v
	}
	if v := firstMatch(e.patterns.Net, text); v != "" {
		p.net = &v
	} else if v := firstMatch(e.patterns.NetSyn, text); v != "" {
		p.net = &v
	}
	if !p.anyField() {
		return nil
	}
	return p
}

func (e *Extractor) finalize(p *partial, lines []string, page int, defs Defaults) entity.FieldRecord {
	var conf float32 = 1.0

	name := deref(p.name)
	if name == "" {
		if h := nearestNameShaped(lines, p.anchorLine); h != "" {
			name = h
			conf = 0.6
		} else if defs.Name != "" {
			name = defs.Name
			conf = 0.6
		}
	}

	id := deref(p.externalID)
	if id == "" && defs.ExternalID != "" {
		id = defs.ExternalID
		if conf > 0.8 {
			conf = 0.8
		}
	}

	// The external id is authoritative over an OCR-derived name.
	if e.registry != nil && id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			if canonical, ok := e.registry.CanonicalNameByID(n); ok {
				name = canonical
			}
		}
	}

	return entity.FieldRecord{
		Name:       name,
		ExternalID: id,
		Gross:      ParseAmount(deref(p.gross)),
		Net:        ParseAmount(deref(p.net)),
		Page:       page,
		Line:       p.anchorLine + 1,
		Confidence: conf,
	}
}

// nearestNameShaped finds the closest line to the anchor that looks like a
// bare person name.
func nearestNameShaped(lines []string, anchor int) string {
	for off := 0; off < len(lines); off++ {
		for _, i := range []int{anchor + off, anchor - off} {
			if i < 0 || i >= len(lines) {
				continue
			}
			s := strings.TrimSpace(lines[i])
			if nameShaped.MatchString(s) {
				return s
			}
		}
	}
	return ""
}

func partialFor(parts []*partial, line int) *partial {
	best := parts[0]
	for _, p := range parts[1:] {
		if p.anchorLine <= line && p.anchorLine > best.anchorLine {
			best = p
		}
	}
	return best
}

func firstMatch(res []*regexp.Regexp, s string) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(s); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

// cleanName trims label punctuation and rejects captures that cannot be a
// person name (digits, single character).
func cleanName(s string) string {
	s = strings.Trim(s, " \t:,;.-")
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) < 2 {
		return ""
	}
	if strings.ContainsAny(s, "0123456789") {
		return ""
	}
	return s
}

func setIfMissing(dst **string, v string) {
	if v != "" && *dst == nil {
		*dst = &v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
