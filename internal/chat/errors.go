package chat

import "errors"

// ErrUnknownCorrespondent is returned by SelectID for an id missing from the
// loaded correspondent list.
var ErrUnknownCorrespondent = errors.New("unknown correspondent")

// FailureKind classifies a failed network operation.
type FailureKind int

const (
	// NetworkFailure means the request did not complete.
	NetworkFailure FailureKind = iota + 1
	// ServerError means the server answered with a non-success status.
	ServerError
)

func (k FailureKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case ServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Classify maps err to a FailureKind. Errors exposing a StatusCode are
// server errors; everything else, timeouts included, is a network failure.
func Classify(err error) FailureKind {
	var sc statusCoder
	if errors.As(err, &sc) {
		return ServerError
	}
	return NetworkFailure
}
