package leaveerrors

import (
	"net/http"

	"leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"date range must start on or before its end and include at least one working day",
		http.StatusBadRequest,
	)
	ErrPastDate = apperror.New(
		apperror.CodeInvalidInput,
		"leave cannot start in the past",
		http.StatusBadRequest,
	)
	ErrYearOutOfWindow = apperror.New(
		apperror.CodeInvalidInput,
		"leave can only be requested for the current or the next calendar year",
		http.StatusBadRequest,
	)
	ErrOverlap = apperror.New(
		apperror.CodeConflict,
		"an open leave request already covers part of this period",
		http.StatusConflict,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown or inactive leave type",
		http.StatusBadRequest,
	)
	ErrExceedsTypeLimit = apperror.New(
		apperror.CodeInvalidInput,
		"request exceeds the maximum days allowed for this leave type",
		http.StatusBadRequest,
	)
	ErrUnknownAffiliate = apperror.New(
		apperror.CodeInvalidInput,
		"no approval chain is configured for this affiliate",
		http.StatusBadRequest,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you are not the approver this request is waiting on",
		http.StatusForbidden,
	)
	ErrTerminal = apperror.New(
		apperror.CodeInvalidState,
		"this leave request has already been finalized",
		http.StatusConflict,
	)
	ErrCommentRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a comment is required when rejecting",
		http.StatusBadRequest,
	)
	ErrInvalidEmployee = apperror.New(
		apperror.CodeInvalidInput,
		"requesting employee is unknown or inactive",
		http.StatusBadRequest,
	)
)

// StaleState reports that another event advanced the request first. The
// current status rides along so the client can refresh and retry.
func StaleState(currentStatus string) *apperror.AppError {
	return apperror.Newf(
		apperror.CodeStaleState,
		http.StatusConflict,
		"request was updated concurrently, current status is %q",
		currentStatus,
	)
}
