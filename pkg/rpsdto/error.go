package rpsdto

// Error codes carried by DomainError.Code.
const (
	CodeInvalidIdentifier   = "invalid_identifier"
	CodeInvalidRequest      = "invalid_request"
	CodeNoMove              = "no_move"
	CodeGameInProgress      = "game_in_progress"
	CodeNoSuchGame          = "no_such_game"
	CodeGameAlreadyResolved = "game_already_resolved"
	CodeHistoryDisabled     = "history_disabled"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal"
)

// DomainError is the error body returned by the API for every failed request.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "rps service error"
}

// ErrorBody wraps DomainError on the wire.
type ErrorBody struct {
	Error DomainError `json:"error"`
}
