package errs

import (
	"errors"
	"fmt"
)

// Error codes carried by the typed errors in this package. The calling layer
// maps them to transport statuses and user-facing messages.
const (
	CodeNotFound                     = "NOT_FOUND"
	CodeAlreadyExists                = "ALREADY_EXISTS"
	CodeSystemPermissionModification = "SYSTEM_PERMISSION_MODIFICATION"
	CodeForbidden                    = "FORBIDDEN"
	CodeStorageUnavailable           = "STORAGE_UNAVAILABLE"
	CodeValidationFailed             = "VALIDATION_FAILED"
	CodeInternal                     = "INTERNAL"
)

// Operations reported by SystemPermissionModificationError.
const (
	OperationDeactivation = "deactivation"
	OperationDeletion     = "deletion"
)

// Coded is implemented by every error type in this package.
type Coded interface {
	error
	Code() string
}

// NotFoundError is returned when an entity referenced by id or name does not exist
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// Code returns CodeNotFound
func (e *NotFoundError) Code() string { return CodeNotFound }

// AlreadyExistsError is returned when a create violates name uniqueness
type AlreadyExistsError struct {
	Entity string
	Name   string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.Name)
}

// Code returns CodeAlreadyExists
func (e *AlreadyExistsError) Code() string { return CodeAlreadyExists }

// SystemPermissionModificationError is returned when a caller attempts to
// deactivate or delete a system permission.
type SystemPermissionModificationError struct {
	PermissionID string
	Name         string
	Operation    string
}

func (e *SystemPermissionModificationError) Error() string {
	return fmt.Sprintf("system permission %s cannot be modified: %s not allowed", e.Name, e.Operation)
}

// Code returns CodeSystemPermissionModification
func (e *SystemPermissionModificationError) Code() string { return CodeSystemPermissionModification }

// AuthorizationError is the hard-failure form of a denied decision
type AuthorizationError struct {
	ActorID  string
	Role     string
	Action   string
	Resource string
	Reason   string
}

func (e *AuthorizationError) Error() string {
	actor := e.ActorID
	if actor == "" {
		actor = "actor"
	}
	return fmt.Sprintf("%s (%s) is not allowed to %s %s: %s", actor, e.Role, e.Action, e.Resource, e.Reason)
}

// Code returns CodeForbidden
func (e *AuthorizationError) Code() string { return CodeForbidden }

// StorageUnavailableError wraps a failure of the underlying store. It is
// eligible for caller-side retry; the engine never retries it.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

// Code returns CodeStorageUnavailable
func (e *StorageUnavailableError) Code() string { return CodeStorageUnavailable }

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// ValidationError reports input that violates an entity invariant
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Code returns CodeValidationFailed
func (e *ValidationError) Code() string { return CodeValidationFailed }

// Storage wraps err as a StorageUnavailableError unless it already carries a
// code from this package.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded Coded
	if errors.As(err, &coded) {
		return err
	}
	return &StorageUnavailableError{Op: op, Err: err}
}

// CodeOf returns the code of the first typed error in err's chain
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeInternal
}

// IsNotFound checks if err is a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAlreadyExists checks if err is an AlreadyExistsError
func IsAlreadyExists(err error) bool {
	var target *AlreadyExistsError
	return errors.As(err, &target)
}

// IsSystemPermissionModification checks if err is a SystemPermissionModificationError
func IsSystemPermissionModification(err error) bool {
	var target *SystemPermissionModificationError
	return errors.As(err, &target)
}

// IsAuthorization checks if err is an AuthorizationError
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsStorageUnavailable checks if err is a StorageUnavailableError
func IsStorageUnavailable(err error) bool {
	var target *StorageUnavailableError
	return errors.As(err, &target)
}

// IsValidation checks if err is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
