package core

import "errors"

// Kind classifies a failure by how severe it is for the caller
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code
}

var (
	// ErrNoRecord is returned by stores when a lookup matches nothing
	ErrNoRecord = &Error{Kind: KindNotFound, Code: "no record", Message: "Object not found."}

	ErrAccountNotFound     = &Error{Kind: KindNotFound, Code: "account not found", Message: "User account not found."}
	ErrInvalidSignature    = &Error{Kind: KindUnauthorized, Code: "invalid signature", Message: "Invalid signature."}
	ErrSignatureFormat     = &Error{Kind: KindInternal, Code: "malformed signature", Message: "Internal server error."}
	ErrUnsupportedProvider = &Error{Kind: KindInvalidRequest, Code: "unsupported provider", Message: "Provider is not supported."}

	ErrTokenInvalid = &Error{Kind: KindUnauthorized, Code: "invalid token", Message: "Invalid or expired token."}
	ErrTokenExpired = &Error{Kind: KindUnauthorized, Code: "token has expired", Message: "Invalid or expired token."}
	ErrWrongKind    = &Error{Kind: KindUnauthorized, Code: "wrong token kind", Message: "Invalid token type used."}
	ErrMissingToken = &Error{Kind: KindUnauthorized, Code: "missing token", Message: "Authorization token is required."}

	ErrIdentityNotFound = &Error{Kind: KindNotFound, Code: "identity not found", Message: "User associated with JWT not found."}
	ErrIdentityGone     = &Error{Kind: KindNotFound, Code: "identity gone", Message: "User associated with JWT not found."}

	ErrTokenNotSupported    = &Error{Kind: KindInvalidRequest, Code: "token not supported", Message: "Token is not supported."}
	ErrMetadataRequired     = &Error{Kind: KindInvalidRequest, Code: "metadata required", Message: "Metadata is required for this token."}
	ErrInvalidAccountNumber = &Error{Kind: KindInvalidRequest, Code: "invalid account number", Message: "Account number is not valid for token."}
	ErrAddressNotFound      = &Error{Kind: KindNotFound, Code: "address not found", Message: "Object with given ID not found."}
	ErrNotPermitted         = &Error{Kind: KindForbidden, Code: "not permitted", Message: "You do not have permission to perform this action."}
)

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client facing message for err.
// Internal failures never expose their detail.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error."
}
