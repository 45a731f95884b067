package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/entity"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		path string
		want entity.PeriodKey
	}{
		{"Abrechnung_07_2025.pdf", entity.PeriodKey{Month: 7, Year: 2025}},
		{"/in/box/Umsatz 12-2024 final.pdf", entity.PeriodKey{Month: 12, Year: 2024}},
		{"flughafen.01.2026.pdf", entity.PeriodKey{Month: 1, Year: 2026}},
		// The first plausible period wins; implausible candidates are skipped.
		{"scan_99_1999_03_2024.pdf", entity.PeriodKey{Month: 3, Year: 2024}},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.path)
		require.NoError(t, err, "path=%q", tc.path)
		assert.Equal(t, tc.want, got, "path=%q", tc.path)
	}
}

func TestParsePeriodUnrecognized(t *testing.T) {
	for _, path := range []string{"report.pdf", "13_2025.pdf", "07_25.pdf", ""} {
		_, err := ParsePeriod(path)
		require.Error(t, err, "path=%q", path)
		assert.True(t, errors.Is(err, common.ErrFilenameUnrecognized), "path=%q", path)
	}
}

func TestPeriodKeyNaming(t *testing.T) {
	p := entity.PeriodKey{Month: 7, Year: 2025}
	assert.Equal(t, "07_25", p.TableName())
	assert.Equal(t, "07/2025", p.String())
}
