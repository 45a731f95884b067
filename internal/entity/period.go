package entity

import "fmt"

// PeriodKey identifies the (month, year) relation a record belongs to.
type PeriodKey struct {
	Month int
	Year  int
}

// TableName returns the period relation name, e.g. "07_25" for July 2025.
// Callers must quote it in SQL since it starts with a digit.
func (p PeriodKey) TableName() string {
	return fmt.Sprintf("%02d_%02d", p.Month, p.Year%100)
}

func (p PeriodKey) String() string {
	return fmt.Sprintf("%02d/%04d", p.Month, p.Year)
}

// Valid reports whether the key denotes a plausible accounting period.
func (p PeriodKey) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000 && p.Year <= 2099
}
