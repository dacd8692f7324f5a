package domain

import "errors"

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified error carrying a client-safe message.
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

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(msg string) *Error    { return &Error{Kind: KindValidation, Message: msg} }
func NewNotFoundError(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func NewAuthorizationError(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }
func NewConflictError(msg string) *Error      { return &Error{Kind: KindConflict, Message: msg} }

// NewInternalError wraps an infrastructure failure. Its message is never
// shown to clients.
func NewInternalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage returns the message that may be shown to a client.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Message
	}
	return "Server Error"
}

var (
	ErrConcurrentModification = &Error{Kind: KindConflict, Message: "Resource was modified concurrently, please retry"}
	ErrDuplicateKey           = &Error{Kind: KindConflict, Message: "Resource already exists"}

	ErrUserNotFound       = NewNotFoundError("User not found")
	ErrNoUsers            = NewNotFoundError("No users found")
	ErrEmailTaken         = NewConflictError("Email is already taken")
	ErrUsernameTaken      = NewConflictError("Username is already taken")
	ErrInvalidCredentials = NewValidationError("Invalid username or password")
	ErrRoleMismatch       = NewAuthorizationError("User does not exist with this role")

	ErrBlogNotFound        = NewNotFoundError("Blog not found")
	ErrNotBlogAuthorEdit   = NewAuthorizationError("You are not authorized to update this blog")
	ErrNotBlogAuthorDel    = NewAuthorizationError("You are not authorized to delete this blog")
	ErrAlreadyLiked        = NewConflictError("You have already liked this blog")
	ErrNotLiked            = NewConflictError("You haven't liked this blog yet")
	ErrAlreadyDisliked     = NewConflictError("You have already disliked this blog")
	ErrNotDisliked         = NewConflictError("You haven't disliked this blog yet")
	ErrAlreadyViewed       = NewConflictError("You have already viewed this blog")
	ErrUnknownEngagement   = NewValidationError("Unknown engagement action")
	ErrEngagementContended = NewConflictError("Blog was modified concurrently, please retry")

	ErrCategoryNotFound    = NewNotFoundError("Category not found")
	ErrCategoryExists      = NewConflictError("Category with this name already exists")
	ErrNotCategoryCreator  = NewAuthorizationError("You are not authorized to delete this category")
	ErrForeignCategoryUser = NewAuthorizationError("You can only create categories as yourself")

	ErrNotSelfUpdate = NewAuthorizationError("You are not authorized to update this user")
	ErrNotSelfDelete = NewAuthorizationError("You are not authorized to delete this user")
)
