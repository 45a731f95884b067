package entity

// SourceDocument describes one input file for the duration of a pipeline run.
type SourceDocument struct {
	Path      string
	Period    PeriodKey
	PageCount int
}
