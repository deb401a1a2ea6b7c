package blog

import "errors"

// Kind classifies an operation failure. Handlers translate each kind into a
// flash message and a redirect target.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
	KindStorage
	KindNotification
)

// Error is the failure type produced by the services. Message is safe to
// show to the user; Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// genericStorageMessage is shown for any storage failure; internals stay in
// the logs.
const genericStorageMessage = "A database error occurred. Please try again later."

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func invalid(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: genericStorageMessage, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the user-facing message for err. Foreign errors get
// the generic storage message so internals never leak to a page.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return genericStorageMessage
}
