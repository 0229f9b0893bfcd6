// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// RespondError maps engine errors to HTTP responses using RFC7807.
// Structural input defects respond 422: the request parsed fine but the
// accounting rules reject it.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validation  *ledger.ValidationError
		unbalanced  *ledger.UnbalancedEntryError
		tmplUnbal   *ledger.UnbalancedTemplateError
		nonPostable *ledger.NonPostableAccountError
		unknownAcc  *ledger.UnknownAccountError
		missing     *ledger.MissingContextFieldError
	)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, ledger.ErrImmutableEntry),
		errors.Is(err, ledger.ErrSourceAlreadyLinked):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &validation),
		errors.As(err, &unbalanced),
		errors.As(err, &tmplUnbal),
		errors.As(err, &nonPostable),
		errors.As(err, &unknownAcc),
		errors.As(err, &missing):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
