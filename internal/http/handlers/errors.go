// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status
// semantics; domain codes name the operation that failed server-side.
// Clients branch on the code, never on the message.
package handlers

const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeValidation         = "validation_failed"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeRateLimited        = "too_many_requests"
	ErrCodeInternal           = "internal_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"

	// Domain-specific:
	ErrCodeSubmitFailed = "submit_failed"
	ErrCodeUpdateFailed = "update_failed"
	ErrCodeDeleteFailed = "delete_failed"
	ErrCodeListFailed   = "list_failed"
	ErrCodeVoteFailed   = "vote_failed"
	ErrCodeExportFailed = "export_failed"
	ErrCodeSeedFailed   = "seed_failed"
	ErrCodeResetFailed  = "reset_failed"
)
