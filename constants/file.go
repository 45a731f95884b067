package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for document ingestion.
// The pipeline only understands PDF input; scanned pages arrive wrapped in PDF
// containers from the office scanner.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
