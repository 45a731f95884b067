package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/entity"
)

// periodPattern matches the fixed naming convention: a two-digit month and a
// four-digit year separated by one delimiter, e.g. "Abrechnung_07_2025.pdf".
var periodPattern = regexp.MustCompile(`(\d{2})[._\- ](\d{4})`)

// ParsePeriod derives the period key from a document's filename. A filename
// without a recognizable period is a fatal per-document error: defaulting to
// "today" would silently mis-file records into the wrong period.
func ParsePeriod(path string) (entity.PeriodKey, error) {
	base := filepath.Base(path)
	for _, m := range periodPattern.FindAllStringSubmatch(base, -1) {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		key := entity.PeriodKey{Month: month, Year: year}
		if key.Valid() {
			return key, nil
		}
	}
	return entity.PeriodKey{}, fmt.Errorf("%w: %q", common.ErrFilenameUnrecognized, base)
}
