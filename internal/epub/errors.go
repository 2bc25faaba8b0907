package epub

import "errors"

// Fatal error classes of the import pipeline. Callers classify failures with
// errors.Is; everything not wrapping one of these was already degraded around
// with a warning.
var (
	ErrExtraction       = errors.New("epub: extraction failed")
	ErrPackageNotFound  = errors.New("epub: package document not found")
	ErrPackageMalformed = errors.New("epub: package document malformed")
)
