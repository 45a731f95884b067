package registry

import (
	"strconv"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/mwerning/fleetscan/constants"
)

// MatchResult resolves a raw extracted name to a reference entity, or records
// the best score seen when nothing cleared the acceptance gate.
type MatchResult struct {
	EntityID      int64
	CanonicalName string
	Score         float64
	Source        string // constants.Match*
}

// Matched reports whether the result points at a registry entity.
func (r MatchResult) Matched() bool {
	return r.Source != constants.MatchNone
}

// Matcher resolves raw names against a registry cache snapshot. The
// thresholds are empirically tuned to one language/layout family; re-tune
// before reusing them elsewhere.
type Matcher struct {
	Threshold     float64 // minimum composite score, default 65
	CoverageFloor float64 // minimum query-token coverage, default 0.5
}

func NewMatcher(threshold, coverageFloor float64) Matcher {
	if threshold <= 0 {
		threshold = 65
	}
	if coverageFloor <= 0 {
		coverageFloor = 0.5
	}
	return Matcher{Threshold: threshold, CoverageFloor: coverageFloor}
}

// Match resolves a raw name and optional external id. An external id that
// parses as an integer present in the registry wins immediately and bypasses
// fuzzy scoring entirely: the id is authoritative over an OCR-derived name.
func (m Matcher) Match(c *Cache, rawName, externalID string) MatchResult {
	// Held across the whole scan: provisioning in another document must not
	// mutate the entry list mid-iteration.
	c.mu.RLock()
	defer c.mu.RUnlock()

	if externalID != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(externalID), 10, 64); err == nil {
			if name, ok := c.byID[id]; ok {
				return MatchResult{EntityID: id, CanonicalName: name, Score: 100, Source: constants.MatchExactID}
			}
		}
	}

	q := Tokens(rawName)
	if len(q) == 0 {
		return MatchResult{Source: constants.MatchNone}
	}

	var (
		best      *Entry
		bestScore float64
		topScore  float64
	)
	for i := range c.entries {
		e := &c.entries[i]
		if len(e.tokens) == 0 {
			continue
		}
		s := scoreNames(q, e.tokens)
		if s.score > topScore {
			topScore = s.score
		}
		// Compound acceptance gate: a single scalar threshold is either too
		// permissive or too strict under OCR noise, so score, coverage and
		// token agreement must all hold. Bias is toward rejecting uncertain
		// matches rather than mis-attributing a record.
		if s.score < m.Threshold {
			continue
		}
		if s.coverage < m.CoverageFloor && s.mergeCoverage < m.CoverageFloor {
			continue
		}
		if !tokensAgree(q, e.tokens) {
			continue
		}
		if best == nil || s.score > bestScore {
			best = e
			bestScore = s.score
		}
	}
	if best != nil {
		return MatchResult{EntityID: best.ID, CanonicalName: best.Name, Score: bestScore, Source: constants.MatchFuzzy}
	}

	// Stricter fallback: a unique candidate whose token set exactly equals the
	// query's handles first/last name swaps.
	key := Key(q)
	var eq *Entry
	eqCount := 0
	for i := range c.entries {
		if Key(c.entries[i].tokens) == key {
			eq = &c.entries[i]
			eqCount++
		}
	}
	if eqCount == 1 {
		return MatchResult{EntityID: eq.ID, CanonicalName: eq.Name, Score: topScore, Source: constants.MatchTokenEquality}
	}

	return MatchResult{Score: topScore, Source: constants.MatchNone}
}

type nameScore struct {
	score         float64
	coverage      float64
	mergeCoverage float64
}

// scoreNames computes the composite similarity of two normalized token lists.
// Dice runs over merge variants of both sides to tolerate OCR token splitting
// ("Muster mann") and merging ("MaxMustermann").
func scoreNames(q, t []string) nameScore {
	qv := mergeVariants(q)
	tv := mergeVariants(t)

	var dice float64
	var mergeCov float64
	for _, a := range qv {
		for _, b := range tv {
			if d := diceCoefficient(a, b); d > dice {
				dice = d
			}
			if cv := coverage(a, b); cv > mergeCov {
				mergeCov = cv
			}
		}
	}

	cov := coverage(q, t)
	jac := jaccard(q, t)
	lev := levenshtein.Similarity(strings.Join(q, " "), strings.Join(t, " "), levenshtein.NewParams())

	score := 100 * (0.55*dice + 0.20*cov + 0.10*jac + 0.15*lev)

	// Additive bonuses.
	if q[0] == t[0] {
		score += 6
	}
	if q[len(q)-1] == t[len(t)-1] {
		score += 6
	}
	if hasPrefixPair(q, t) {
		score += 4
	}
	if containsToken(q, localeMarker) && containsToken(t, localeMarker) {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return nameScore{score: score, coverage: cov, mergeCoverage: mergeCov}
}

// mergeVariants returns the token list itself, every adjacent-pair merge, and
// the full concatenation.
func mergeVariants(tok []string) [][]string {
	out := [][]string{tok}
	for i := 0; i+1 < len(tok); i++ {
		v := make([]string, 0, len(tok)-1)
		v = append(v, tok[:i]...)
		v = append(v, tok[i]+tok[i+1])
		v = append(v, tok[i+2:]...)
		out = append(out, v)
	}
	if len(tok) > 2 {
		out = append(out, []string{strings.Join(tok, "")})
	}
	return out
}

func tokenSet(tok []string) map[string]struct{} {
	s := make(map[string]struct{}, len(tok))
	for _, t := range tok {
		s[t] = struct{}{}
	}
	return s
}

func diceCoefficient(a, b []string) float64 {
	as, bs := tokenSet(a), tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for t := range as {
		if _, ok := bs[t]; ok {
			inter++
		}
	}
	return 2 * float64(inter) / float64(len(as)+len(bs))
}

// coverage is the fraction of query tokens present in the target.
func coverage(q, t []string) float64 {
	if len(q) == 0 {
		return 0
	}
	ts := tokenSet(t)
	hit := 0
	for _, tok := range q {
		if _, ok := ts[tok]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(q))
}

func jaccard(a, b []string) float64 {
	as, bs := tokenSet(a), tokenSet(b)
	inter := 0
	for t := range as {
		if _, ok := bs[t]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// hasPrefixPair reports whether any token of one side is a strict prefix of a
// token on the other side, tolerating truncated OCR tokens.
func hasPrefixPair(q, t []string) bool {
	const minLen = 3
	for _, a := range q {
		for _, b := range t {
			if a == b || len(a) < minLen || len(b) < minLen {
				continue
			}
			if strings.HasPrefix(b, a) || strings.HasPrefix(a, b) {
				return true
			}
		}
	}
	return false
}

func containsToken(tok []string, want string) bool {
	for _, t := range tok {
		if t == want {
			return true
		}
	}
	return false
}

// tokensAgree holds when some merge variant of one side is set-equal to, or
// an ordered subsequence of, a variant of the other. Running over variants
// keeps OCR-split tokens ("Muster mann") from failing the gate.
func tokensAgree(q, t []string) bool {
	for _, a := range mergeVariants(q) {
		for _, b := range mergeVariants(t) {
			if Key(a) == Key(b) {
				return true
			}
			if len(a) <= len(b) {
				if isSubsequence(a, b) {
					return true
				}
			} else if isSubsequence(b, a) {
				return true
			}
		}
	}
	return false
}

func isSubsequence(sub, full []string) bool {
	i := 0
	for _, tok := range full {
		if i < len(sub) && sub[i] == tok {
			i++
		}
	}
	return i == len(sub)
}
