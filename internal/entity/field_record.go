package entity

import "github.com/shopspring/decimal"

// FieldRecord is one extracted per-page record before reconciliation.
// Name and ExternalID keep the raw strings exactly as they appeared in the
// document; the registry match happens later against these.
type FieldRecord struct {
	Name       string
	ExternalID string
	Gross      decimal.Decimal
	Net        decimal.Decimal

	// Provenance.
	Page int
	Line int

	// Confidence is low when a field was backfilled from a heuristic or a
	// page-level default rather than an explicit label match.
	Confidence float32
}

// Empty reports whether the record carries neither a name nor an external id.
func (r FieldRecord) Empty() bool {
	return r.Name == "" && r.ExternalID == ""
}
