package models

// ImportRow is one loosely-typed row handed in by a bulk-row collaborator
// (spreadsheet, bot upload). Columns are positional strings; the import
// service owns validation and never assumes the source is well-formed.
type ImportRow []string

// ImportRowError pairs a failed row's 1-based position with its error.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary reports partial-success results of a batch import. Rows are
// processed strictly sequentially; one row's failure never aborts the batch
// or rolls back prior successful rows.
type ImportSummary struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors,omitempty"`
}
