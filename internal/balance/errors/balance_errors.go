package balanceerrors

import (
	"net/http"

	"leaveflow/internal/shared/apperror"
)

var (
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"not enough remaining leave days for this request",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year must be a four digit number",
		http.StatusBadRequest,
	)
	// ErrLedgerInvariant means used/pending would go negative or exceed the
	// entitlement. The state machine contract was breached; the transition
	// must roll back and the caller sees an opaque 500.
	ErrLedgerInvariant = apperror.New(
		apperror.CodeInternalError,
		"leave balance invariant violated",
		http.StatusInternalServerError,
	)
)
