package models

// SourceStatus is the tagged outcome of a directive or a whole data source.
type SourceStatus string

const (
	StatusOK             SourceStatus = "OK"
	StatusNotImplemented SourceStatus = "NOT_IMPLEMENTED"
	StatusMissingService SourceStatus = "MISSING_SERVICE"
	StatusError          SourceStatus = "ERROR"
)

// ReasonTimeout is the error reason recorded when an adapter call exceeds its deadline.
const ReasonTimeout = "timeout"

// SourceResult is what a data source contributed to the response.
type SourceResult struct {
	Status  SourceStatus `json:"status"`
	Reason  string       `json:"error,omitempty"`
	Payload any          `json:"payload,omitempty"`
}

// OK wraps a successful payload.
func OK(payload any) SourceResult {
	return SourceResult{Status: StatusOK, Payload: payload}
}

// Failed records an adapter failure.
func Failed(reason string) SourceResult {
	return SourceResult{Status: StatusError, Reason: reason}
}
