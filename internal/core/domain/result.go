package domain

import "time"

type ResultStatus string

const (
	ResultOK     ResultStatus = "ok"
	ResultFailed ResultStatus = "failed"
)

// FailureReason distinguishes why a single document could not be classified.
type FailureReason string

const (
	ReasonStorageError       FailureReason = "storage_error"
	ReasonOracleUnreachable  FailureReason = "oracle_unreachable"
	ReasonAnswerUnrecognized FailureReason = "answer_unrecognized"
	ReasonBudgetExhausted    FailureReason = "budget_exhausted"
	ReasonInvalidContent     FailureReason = "invalid_content"
)

// DocumentResult is the per-document outcome of one classification run.
// Results are never updated after the response is assembled.
type DocumentResult struct {
	Key          string        `json:"key"`
	Filename     string        `json:"filename,omitempty"`
	Category     Category      `json:"category,omitempty"`
	Status       ResultStatus  `json:"status"`
	Reason       FailureReason `json:"reason,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	ClassifiedAt time.Time     `json:"classifiedAt"`
}

// BatchOutcome holds per-document results in request order. Partial is set
// when the execution budget ran out before every document was attempted.
type BatchOutcome struct {
	Results []DocumentResult `json:"results"`
	Partial bool             `json:"partial,omitempty"`
}

// OracleUnreachableForAll reports whether every document in the batch failed
// on oracle transport, which the API surfaces as a gateway error.
func (o *BatchOutcome) OracleUnreachableForAll() bool {
	if len(o.Results) == 0 {
		return false
	}
	for _, r := range o.Results {
		if r.Status != ResultFailed || r.Reason != ReasonOracleUnreachable {
			return false
		}
	}
	return true
}
