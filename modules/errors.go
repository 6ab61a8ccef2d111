package modules

import "errors"

// Kind groups oracle errors by the class of precondition they violate.
// Callers branch on Kind or Code, never on the message.
type Kind string

const (
	KindValidation Kind = "Validation"
	KindState      Kind = "State"
	KindResolver   Kind = "Resolver"
	KindFunds      Kind = "Funds"
	KindInternal   Kind = "Internal"
)

// Error is the structured error returned by every oracle operation.
// Code is stable and is what the node reports in a transaction result.
type Error struct {
	Kind    Kind
	Code    uint32
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func newError(kind Kind, code uint32, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var ErrInternal = newError(KindInternal, 1, "internal error")

// input validation
var (
	ErrEmptyTopic        = newError(KindValidation, 10, "topic is empty")
	ErrTopicTooLong      = newError(KindValidation, 11, "topic exceeds maximum length")
	ErrEmptyMetadata     = newError(KindValidation, 12, "metadata is empty")
	ErrMetadataTooLong   = newError(KindValidation, 13, "metadata exceeds maximum length")
	ErrTopicNotAllowed   = newError(KindValidation, 14, "topic is not whitelisted")
	ErrAssetNotAllowed   = newError(KindValidation, 15, "asset is not whitelisted")
	ErrBondTooLow        = newError(KindValidation, 16, "bond is below the registry minimum")
	ErrBondMismatch      = newError(KindValidation, 17, "bond amount does not match the query bond")
	ErrAssetMismatch     = newError(KindValidation, 18, "asset does not match the query asset")
	ErrInvalidExpiration = newError(KindValidation, 19, "expiration must be after now plus liveness")
	ErrInvalidLiveness   = newError(KindValidation, 20, "liveness must be positive")
	ErrFutureTimestamp   = newError(KindValidation, 21, "timestamp is in the future")
	ErrEmptyClaim        = newError(KindValidation, 22, "claim is empty")
	ErrMissingResolver   = newError(KindValidation, 23, "resolver identity is empty")
	ErrMissingAuth       = newError(KindValidation, 24, "authorization token is not a named type")
	ErrInvalidAmount     = newError(KindValidation, 25, "amount must be positive")
	ErrInvalidAddress    = newError(KindValidation, 26, "address is empty")
)

// state transitions
var (
	ErrQueryNotFound         = newError(KindState, 40, "query not found")
	ErrWrongStatus           = newError(KindState, 41, "operation not allowed in the current query status")
	ErrSelfChallenge         = newError(KindState, 42, "submitter cannot challenge its own claim")
	ErrLivenessExpired       = newError(KindState, 43, "liveness window has elapsed")
	ErrQueryExpired          = newError(KindState, 44, "query has reached its expiration")
	ErrNotCreator            = newError(KindState, 45, "only the query creator may do this")
	ErrChallengeNotConsumed  = newError(KindState, 46, "challenge was not accepted by a resolver")
	ErrResolutionNotConsumed = newError(KindState, 47, "resolution was not applied to a query")
	ErrAlreadyConsumed       = newError(KindState, 48, "value was already consumed")
	ErrUnknownValue          = newError(KindState, 49, "value was not issued in this transaction")
)

// resolver protocol
var (
	ErrResolverNotFound        = newError(KindResolver, 60, "resolver not found")
	ErrResolverExists          = newError(KindResolver, 61, "resolver already registered")
	ErrResolverDisabled        = newError(KindResolver, 62, "resolver is disabled")
	ErrWrongAuthType           = newError(KindResolver, 63, "authorization token has the wrong type")
	ErrNoOpenDispute           = newError(KindResolver, 64, "no open dispute for query")
	ErrDisputeExists           = newError(KindResolver, 65, "dispute already open for query")
	ErrResolutionQueryMismatch = newError(KindResolver, 66, "resolution belongs to another query")
	ErrStaleResolution         = newError(KindResolver, 67, "resolution does not postdate the challenge")
	ErrResolverMismatch        = newError(KindResolver, 68, "resolution comes from an unexpected resolver")
	ErrNotGovernance           = newError(KindResolver, 69, "governance authorization required")
)

// funds
var (
	ErrInsufficientFunds = newError(KindFunds, 80, "insufficient funds")
	ErrNoFees            = newError(KindFunds, 81, "no fees to claim")
	ErrBalanceOverflow   = newError(KindFunds, 82, "balance would overflow")
)

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CodeOf returns the stable code of err, ErrInternal's code for foreign
// errors and 0 for nil.
func CodeOf(err error) uint32 {
	if err == nil {
		return 0
	}
	var e *Error
	if !errors.As(err, &e) {
		return ErrInternal.Code
	}
	return e.Code
}
