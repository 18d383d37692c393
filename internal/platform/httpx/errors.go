package httpx

import (
	"errors"
	"net/http"

	"github.com/lims-platform/identity/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// ErrMisconfiguredBootstrap deliberately maps to 500: a missing canonical
// role is an operator problem, not a caller problem.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrRoleNotFound),
		errors.Is(err, shared.ErrPermissionNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrDuplicateIdentity):
		Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidUsername):
		Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
