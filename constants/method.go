package constants

// Text recovery methods recorded when page text is obtained.
const (
	MethodTextLayer = "text-layer"
	MethodOCR       = "ocr"
)

// Match sources recorded on match results. MatchProvisioned is a writer
// outcome: the entity did not exist and was created during the run.
const (
	MatchExactID       = "exact_id"
	MatchFuzzy         = "fuzzy"
	MatchTokenEquality = "token_equality"
	MatchNone          = "none"
	MatchProvisioned   = "provisioned"
)
