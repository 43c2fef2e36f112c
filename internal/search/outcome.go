package search

// Outcome classifies how a search completed. Degradation (a failed dense
// path, a failed rerank call) is reported here instead of as an error so
// callers always get a usable result list when any path succeeded.
type Outcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Outcome statuses.
const (
	StatusOk       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// OutcomeOk is the clean-completion outcome.
func OutcomeOk() Outcome {
	return Outcome{Status: StatusOk}
}

// OutcomeDegraded records a partial failure the search survived.
func OutcomeDegraded(reason string) Outcome {
	return Outcome{Status: StatusDegraded, Reason: reason}
}

// Degraded reports whether the search lost a retrieval or rerank path.
func (o Outcome) Degraded() bool {
	return o.Status == StatusDegraded
}
