package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", &NotFoundError{Entity: "permission", Key: "42"}, CodeNotFound},
		{"already exists", &AlreadyExistsError{Entity: "permission", Name: "PROSPECT_READ"}, CodeAlreadyExists},
		{"system modification", &SystemPermissionModificationError{Name: "PROSPECT_READ", Operation: OperationDeletion}, CodeSystemPermissionModification},
		{"authorization", &AuthorizationError{Role: "CLIENT", Action: "DELETE", Resource: "BUSINESS"}, CodeForbidden},
		{"storage", &StorageUnavailableError{Op: "create", Err: errors.New("conn refused")}, CodeStorageUnavailable},
		{"validation", &ValidationError{Field: "name", Message: "required"}, CodeValidationFailed},
		{"wrapped", fmt.Errorf("create permission: %w", &AlreadyExistsError{Entity: "permission", Name: "X"}), CodeAlreadyExists},
		{"plain", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestStorage(t *testing.T) {
	assert.Nil(t, Storage("list", nil))

	raw := errors.New("connection reset")
	wrapped := Storage("list", raw)
	assert.True(t, IsStorageUnavailable(wrapped))
	assert.ErrorIs(t, wrapped, raw)

	// typed errors pass through untouched
	nf := &NotFoundError{Entity: "permission", Key: "1"}
	assert.Same(t, nf, Storage("get", nf))
}

func TestPredicates(t *testing.T) {
	sys := fmt.Errorf("delete: %w", &SystemPermissionModificationError{PermissionID: "1", Name: "STAFF_READ", Operation: OperationDeactivation})

	assert.True(t, IsSystemPermissionModification(sys))
	assert.False(t, IsNotFound(sys))
	assert.True(t, IsNotFound(&NotFoundError{}))
	assert.True(t, IsAlreadyExists(&AlreadyExistsError{}))
	assert.True(t, IsAuthorization(&AuthorizationError{}))
	assert.True(t, IsValidation(&ValidationError{}))

	var target *SystemPermissionModificationError
	if assert.True(t, errors.As(sys, &target)) {
		assert.Equal(t, "deactivation", target.Operation)
	}
}

func TestAuthorizationErrorMessage(t *testing.T) {
	err := &AuthorizationError{ActorID: "u-1", Role: "CLIENT", Action: "MANAGE", Resource: "PROSPECT", Reason: "not_granted"}
	assert.Equal(t, "u-1 (CLIENT) is not allowed to MANAGE PROSPECT: not_granted", err.Error())

	anon := &AuthorizationError{Role: "CLIENT", Action: "MANAGE", Resource: "PROSPECT", Reason: "not_granted"}
	assert.Contains(t, anon.Error(), "actor (CLIENT)")
}
