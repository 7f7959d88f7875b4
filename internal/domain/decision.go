package domain

// DecisionOutcome is a user's verdict on a ranked item.
type DecisionOutcome string

// Possible decision outcomes
const (
	DecisionAccepted  DecisionOutcome = "accepted"
	DecisionDismissed DecisionOutcome = "dismissed"
)

// Validate checks that the outcome is one of the known values.
func (o DecisionOutcome) Validate() error {
	switch o {
	case DecisionAccepted, DecisionDismissed:
		return nil
	}
	return NewValidationError("outcome", "must be accepted or dismissed", ErrInvalidDecision)
}
