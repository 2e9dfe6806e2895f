package bridge

import "errors"

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuthorization
	KindReplay
	KindState
	KindDelegatedTransfer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindReplay:
		return "ReplayError"
	case KindState:
		return "StateError"
	case KindDelegatedTransfer:
		return "DelegatedTransferError"
	default:
		return "UnknownError"
	}
}

// Error is a bridge failure. Reason is a stable string that callers may
// match on.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Reason == e.Reason
}

var (
	ErrUnsupportedChain = &Error{KindValidation, "Not supported chain!"}
	ErrZeroAmount       = &Error{KindValidation, "Amount must be greater than zero!"}
	ErrValueOutOfRange  = &Error{KindValidation, "Value does not fit in uint256!"}
	ErrInvalidSignature = &Error{KindAuthorization, "Invalid claim signature!"}
	ErrNotOwner         = &Error{KindAuthorization, "Ownable: caller is not the owner"}
	ErrDuplicateClaim   = &Error{KindReplay, "This claim is already processed!"}
	ErrNotWrappedToken  = &Error{KindState, "Not a wrapped token!"}
	ErrReentrantCall    = &Error{KindState, "ReentrancyGuard: reentrant call"}
)

// DelegatedTransferError carries a failure of the token ledger. The
// ledger's message is surfaced unmodified.
type DelegatedTransferError struct {
	Op  string
	Err error
}

func (e *DelegatedTransferError) Error() string {
	return e.Err.Error()
}

func (e *DelegatedTransferError) Unwrap() error {
	return e.Err
}

func delegated(op string, err error) error {
	// a reentrancy failure raised by a nested call keeps its own kind
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	var de *DelegatedTransferError
	if errors.As(err, &de) {
		return err
	}
	return &DelegatedTransferError{Op: op, Err: err}
}

// KindOf classifies err. Errors not raised by the bridge return 0.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	var de *DelegatedTransferError
	if errors.As(err, &de) {
		return KindDelegatedTransfer
	}
	return 0
}
