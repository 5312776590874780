package port

// OutcomeRecorder counts the result of credential operations, e.g. ("login", "invalid_credentials").
type OutcomeRecorder interface {
	RecordOutcome(operation, outcome string)
}

// NopOutcomeRecorder discards outcomes.
type NopOutcomeRecorder struct{}

func (NopOutcomeRecorder) RecordOutcome(string, string) {}
