package fields

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	names map[int64]string
}

func (f *fakeRegistry) CanonicalNameByID(id int64) (string, bool) {
	n, ok := f.names[id]
	return n, ok
}

func TestExtractPageSingleLabelledLine(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	recs := e.ExtractPage("Name: Max Mustermann  Id: 42  Gross: 2.500,00  Net: 1.980,00", 1, Defaults{})
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Max Mustermann", rec.Name)
	assert.Equal(t, "42", rec.ExternalID)
	assert.True(t, rec.Gross.Equal(decimal.RequireFromString("2500")))
	assert.True(t, rec.Net.Equal(decimal.RequireFromString("1980")))
	assert.Equal(t, 1, rec.Page)
	assert.Equal(t, 1, rec.Line)
	assert.InDelta(t, 1.0, rec.Confidence, 1e-6)
}

func TestExtractPageFlushesOnNewNameAnchor(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	text := "Fahrer: Hans Meier\n" +
		"Brutto: 1.000,00\n" +
		"Netto: 800,00\n" +
		"\n" +
		"Fahrer: Petra Schulz\n" +
		"Brutto: 2.000,00\n" +
		"Netto: 1.600,00"

	recs := e.ExtractPage(text, 3, Defaults{})
	require.Len(t, recs, 2)

	assert.Equal(t, "Hans Meier", recs[0].Name)
	assert.True(t, recs[0].Gross.Equal(decimal.RequireFromString("1000")))
	assert.True(t, recs[0].Net.Equal(decimal.RequireFromString("800")))
	assert.Equal(t, 1, recs[0].Line)

	assert.Equal(t, "Petra Schulz", recs[1].Name)
	assert.True(t, recs[1].Gross.Equal(decimal.RequireFromString("2000")))
	assert.True(t, recs[1].Net.Equal(decimal.RequireFromString("1600")))
	assert.Equal(t, 5, recs[1].Line)
}

func TestExtractPageSynonymOnlyLabels(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	text := "Abrechnung Juli\n" +
		"Mitarbeiter: Jens Krause\n" +
		"Auszahlungsbetrag: 1.500,00"

	recs := e.ExtractPage(text, 2, Defaults{})
	require.Len(t, recs, 1)

	assert.Equal(t, "Jens Krause", recs[0].Name)
	assert.True(t, recs[0].Net.Equal(decimal.RequireFromString("1500")))
	assert.True(t, recs[0].Gross.IsZero())
}

func TestExtractPageSynonymsFillMissingFields(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	text := "Name: Lena Vogt\n" +
		"Lizenz-Nr: 8\n" +
		"Summe: 900,00\n" +
		"Auszahlung: 720,50"

	recs := e.ExtractPage(text, 1, Defaults{})
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Lena Vogt", rec.Name)
	assert.Equal(t, "8", rec.ExternalID)
	assert.True(t, rec.Gross.Equal(decimal.RequireFromString("900")))
	assert.True(t, rec.Net.Equal(decimal.RequireFromString("720.5")))
}

func TestExtractPageRegistryNameOverridesRecognizedName(t *testing.T) {
	reg := &fakeRegistry{names: map[int64]string{42: "Maximilian Mustermann"}}
	e := NewExtractor(nil, reg, nil)

	recs := e.ExtractPage("Name: Max Muster rnann  Id: 42  Gross: 100,00", 1, Defaults{})
	require.Len(t, recs, 1)
	assert.Equal(t, "Maximilian Mustermann", recs[0].Name)
	assert.Equal(t, "42", recs[0].ExternalID)
}

func TestExtractPageNameShapedBackfill(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	text := "Pers-Nr: 77\n" +
		"Hans Maier\n" +
		"Brutto: 100,00"

	recs := e.ExtractPage(text, 1, Defaults{})
	require.Len(t, recs, 1)

	assert.Equal(t, "Hans Maier", recs[0].Name)
	assert.Equal(t, "77", recs[0].ExternalID)
	assert.InDelta(t, 0.6, recs[0].Confidence, 1e-6)
}

func TestExtractPageHeaderDefaultsBackfill(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	recs := e.ExtractPage("Netto: 500,00", 4, Defaults{Name: "Greta Lund", ExternalID: "7"})
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Greta Lund", rec.Name)
	assert.Equal(t, "7", rec.ExternalID)
	assert.True(t, rec.Net.Equal(decimal.RequireFromString("500")))
	assert.InDelta(t, 0.6, rec.Confidence, 1e-6)
}

func TestExtractPageAggregateFallbackAcrossLines(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	recs := e.ExtractPage("Name:\nMax Mustermann", 1, Defaults{})
	require.Len(t, recs, 1)
	assert.Equal(t, "Max Mustermann", recs[0].Name)
}

func TestExtractPageNoRecords(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	assert.Empty(t, e.ExtractPage("", 1, Defaults{}))
	assert.Empty(t, e.ExtractPage("nur freier text ohne felder", 1, Defaults{}))
}
