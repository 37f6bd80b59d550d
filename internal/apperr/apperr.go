// Package apperr defines the tagged error taxonomy surfaced in ERROR
// frames and HTTP 4xx bodies (spec §7).
package apperr

import "fmt"

// Tag is one of the error codes clients can match on.
type Tag string

const (
	AuthMissingSignature Tag = "auth_missing_signature"
	AuthInvalidSignature Tag = "auth_invalid_signature"
	AuthExpiredTimestamp Tag = "auth_expired_timestamp"
	AuthBadAddress       Tag = "auth_bad_address"

	QueueInvalidStake   Tag = "queue_invalid_stake"
	QueueDuplicateJoin  Tag = "queue_duplicate_join"
	QueueBelowMinimum   Tag = "queue_below_minimum"

	MatchNotFound       Tag = "match_not_found"
	MatchAlreadyOver    Tag = "match_already_over"
	MatchNotYourTurn    Tag = "match_not_your_turn"
	MatchInvalidAction  Tag = "match_invalid_action"
	MatchEmergencyMode  Tag = "match_emergency_mode"

	DepositRequired Tag = "deposit_required"
	DepositTimeout  Tag = "deposit_timeout"
	DepositFailed   Tag = "deposit_failed"

	TransportHelloTimeout  Tag = "transport_hello_timeout"
	TransportInvalidToken  Tag = "transport_invalid_token"

	Internal Tag = "internal"
)

// Error is a tagged application error. The tag is stable API surface;
// Message is human-readable detail that may change across releases.
type Error struct {
	Tag     Tag
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Tag)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

// New builds a tagged error.
func New(tag Tag, message string) *Error {
	return &Error{Tag: tag, Message: message}
}

// HTTPStatus maps a tag to the HTTP status code the Edge API should
// respond with.
func HTTPStatus(tag Tag) int {
	switch tag {
	case AuthMissingSignature, AuthInvalidSignature, AuthExpiredTimestamp, AuthBadAddress:
		return 401
	case MatchNotFound:
		return 404
	case QueueInvalidStake, QueueDuplicateJoin, QueueBelowMinimum, MatchInvalidAction:
		return 400
	case MatchAlreadyOver, MatchNotYourTurn, MatchEmergencyMode:
		return 409
	case Internal:
		return 500
	default:
		return 400
	}
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
