package fields

import "regexp"

// PatternSet holds the ordered regex cascades per field: primary patterns are
// tried line by line first; synonym patterns fill still-missing fields in a
// second pass. The label sets are tuned for German payroll statements and
// radio-dispatch invoices and are injectable for other layout families.
type PatternSet struct {
	Name       []*regexp.Regexp
	ExternalID []*regexp.Regexp
	Gross      []*regexp.Regexp
	Net        []*regexp.Regexp

	NameSyn       []*regexp.Regexp
	ExternalIDSyn []*regexp.Regexp
	GrossSyn      []*regexp.Regexp
	NetSyn        []*regexp.Regexp
}

// labelStop consumes up to the next known field label so a name capture on a
// single-space-separated line does not swallow the rest of the line.
const labelStop = `(?:id|nr|pers|brutto|netto|gross|net|summe)\b`

// DefaultPatterns returns the cascade for the document family the pipeline
// was built for: monthly payroll statements and dispatch/airport invoices.
func DefaultPatterns() *PatternSet {
	return &PatternSet{
		Name: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:name|fahrer)\s*[:,.]?\s*(.+?)\s+` + labelStop),
			regexp.MustCompile(`(?i)\b(?:name|fahrer)\s*[:,.]?\s*(.+?)(?:\s{2,}|\t|$)`),
		},
		ExternalID: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:pers(?:onal)?[-.\s]?nr|fahrer[-.\s]?nr|id|nr)\s*[:.]?\s*([0-9]{1,10})\b`),
		},
		Gross: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:brutto(?:lohn|gehalt|betrag)?|gross)\b\s*[:.]?\s*([0-9][0-9.,\s]*)`),
		},
		Net: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:netto(?:lohn|betrag)?|net)\b\s*[:.]?\s*([0-9][0-9.,\s]*)`),
		},

		NameSyn: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:mitarbeiter|arbeitnehmer|chauffeur)\s*[:,.]?\s*(.+?)\s+` + labelStop),
			regexp.MustCompile(`(?i)\b(?:mitarbeiter|arbeitnehmer|chauffeur)\s*[:,.]?\s*(.+?)(?:\s{2,}|\t|$)`),
			regexp.MustCompile(`(?i)\b(?:herr|frau)\s+(.+?)(?:\s{2,}|\t|$)`),
		},
		ExternalIDSyn: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:kennung|konzession|lizenz(?:nr)?|p-?nr)\s*[:.]?\s*([0-9]{1,10})\b`),
		},
		GrossSyn: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:gesamt(?:brutto)?|gesamtbetrag|summe)\b\s*[:.]?\s*([0-9][0-9.,\s]*)`),
		},
		NetSyn: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:auszahlung(?:sbetrag)?|ausbezahlt|auszahlbetrag)\b\s*[:.]?\s*([0-9][0-9.,\s]*)`),
		},
	}
}

// nameShaped matches a line that looks like a bare person name: two to five
// capitalized tokens and no digits. Used to backfill records whose name had
// no explicit label.
var nameShaped = regexp.MustCompile(`^\p{Lu}[\p{L}\-.']+(?:\s+\p{Lu}[\p{L}\-.']+){1,4}$`)
