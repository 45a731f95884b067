package entity

import (
	"strings"
	"time"
)

// ReferenceEntity is a long-lived registry row (driver or vehicle) used as the
// normalization target for matching. Never deleted by the pipeline.
type ReferenceEntity struct {
	ID         int64
	FirstName  string
	LastName   string
	ExternalID string // license / reference number, optional
	Status     string
	CreatedAt  time.Time
}

// CanonicalName is the authoritative display name: "Last First" ordering is
// not used anywhere; the registry stores given and family name separately and
// displays them family-name-last.
func (e ReferenceEntity) CanonicalName() string {
	return strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName))
}
