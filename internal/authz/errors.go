package authz

import "errors"

var (
	// ErrNotFound indicates an unknown role, user or permission id.
	ErrNotFound = errors.New("authz: not found")
	// ErrUnknownPermission indicates a permission key absent from the catalog.
	ErrUnknownPermission = errors.New("authz: unknown permission key")
	// ErrValidation indicates a malformed payload, such as a duplicated
	// override key or an invalid mode.
	ErrValidation = errors.New("authz: validation failed")
	// ErrConflict indicates a rejected concurrent write; callers may retry.
	ErrConflict = errors.New("authz: conflicting write")
	// ErrForbidden indicates the caller lacks the administrative capability.
	ErrForbidden = errors.New("authz: forbidden")
)
