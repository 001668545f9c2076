package application

import "errors"

var (
	// ErrUnauthenticated is returned when no valid token accompanies a request.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrInvalidCredentials is returned when a login attempt fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrForbidden is returned when the acting principal lacks the required role.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotAuthorized is returned when a principal without a door grant
	// attempts to open the door. It drives the failure-counter path and is
	// distinct from ErrForbidden so call sites can tell the two apart.
	ErrNotAuthorized = errors.New("application: not authorized to open the door")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyGranted is returned when granting a user that already holds a grant.
	ErrAlreadyGranted = errors.New("application: already granted")
	// ErrDuplicateEmail is returned when creating a user with a taken email.
	ErrDuplicateEmail = errors.New("application: email already exists")
	// ErrAlreadyResolved is returned when responding to a non-pending entry request.
	ErrAlreadyResolved = errors.New("application: entry request already resolved")
	// ErrAdminProtected is returned when attempting to delete an administrator.
	ErrAdminProtected = errors.New("application: administrators cannot be deleted")
	// ErrActuatorUnreachable is returned when the door controller cannot be
	// reached or rejects a command.
	ErrActuatorUnreachable = errors.New("application: actuator unreachable")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
