package models

// PointDirection says whether a ledger adjustment adds or removes points.
type PointDirection string

const (
	PointCredit PointDirection = "CREDIT"
	PointDebit  PointDirection = "DEBIT"
)

// Valid returns true when the direction is a supported value.
func (d PointDirection) Valid() bool {
	return d == PointCredit || d == PointDebit
}

// PointAdjustment reports the balance before and after a ledger operation.
// Debits floor-clamp at zero, so a credit followed by an equal debit does not
// always restore the original balance.
type PointAdjustment struct {
	LearnerID string `json:"learner_id"`
	Previous  int    `json:"previous"`
	New       int    `json:"new"`
}
