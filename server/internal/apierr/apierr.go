// Package apierr maps domain sentinel errors from models to HTTP
// responses.
//
// Handlers never write a status code themselves; they call Respond
// with whatever error the repository/service layer returned and this
// package decides the wire shape.
package apierr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
)

// Respond writes the JSON error body and status code for err.
//
// Unrecognized errors fall through to 500 with a generic detail
// string; their concrete message is never echoed to the caller since
// it may leak internal detail (a raw SQL error, a file path).
func Respond(c *gin.Context, err error) {
	status, detail := classify(err)
	c.JSON(status, models.ErrorResponse{Detail: detail})
}

// Abort is Respond followed by c.Abort(), for use inside middleware
// and handlers that must stop the chain.
func Abort(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidCIDR),
		errors.Is(err, models.ErrInvalidIP),
		errors.Is(err, models.ErrInvalidPublicKey),
		errors.Is(err, models.ErrInvalidTokenFormat),
		errors.Is(err, models.ErrGroupNotFound),
		errors.Is(err, models.ErrInvalidPrefix),
		errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrIncompatibleClient):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrInvalidToken),
		errors.Is(err, models.ErrInvalidHMAC):
		// Generic message regardless of the specific auth failure to
		// avoid leaking which check failed (token vs. HMAC vs. missing).
		return http.StatusUnauthorized, "authentication failed"

	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrNotAdmin),
		errors.Is(err, models.ErrNodeBlocked):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrNodeNotFound),
		errors.Is(err, models.ErrCANotFound),
		errors.Is(err, models.ErrPoolNotFound),
		errors.Is(err, models.ErrTokenNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrIPAlreadyAssigned),
		errors.Is(err, models.ErrDuplicateName),
		errors.Is(err, models.ErrLastAdmin),
		errors.Is(err, models.ErrCAStillActive),
		errors.Is(err, models.ErrPoolHasAssignments),
		errors.Is(err, models.ErrCIDRImmutable):
		return http.StatusConflict, err.Error()

	case errors.Is(err, models.ErrNoSigningCA),
		errors.Is(err, models.ErrPoolExhausted),
		errors.Is(err, models.ErrNoCompatibleCA),
		errors.Is(err, models.ErrUnsupportedCertVersion):
		return http.StatusServiceUnavailable, err.Error()

	case errors.Is(err, models.ErrSubprocessFailed),
		errors.Is(err, models.ErrInternal):
		return http.StatusInternalServerError, "an internal error occurred"

	default:
		return http.StatusInternalServerError, "an internal error occurred"
	}
}
