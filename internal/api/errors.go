package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"merchant-onboarding/internal/admin"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
	"merchant-onboarding/internal/wizard"
)

var failureTitles = map[string]string{
	"sk": "Chyba",
	"en": "Error",
}

var invalidRequestTitles = map[string]string{
	"sk": "Neplatná požiadavka",
	"en": "Invalid request",
}

func titleFor(titles map[string]string, locale string) string {
	if t, ok := titles[locale]; ok {
		return t
	}
	return titles["en"]
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, onboarding.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrStepOutOfRange),
		errors.Is(err, onboarding.ErrUnknownSigningPerson),
		errors.Is(err, admin.ErrNoContracts),
		errors.Is(err, admin.ErrEmptyPatch),
		errors.Is(err, admin.ErrInvalid),
		errors.Is(err, wizard.ErrInvalidChange):
		return http.StatusBadRequest
	case errors.Is(err, admin.ErrAgentUnavailable):
		return http.StatusServiceUnavailable
	}
	var verr *onboarding.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail answers with a destructive notice.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), onboarding.ErrorNotice(titleFor(failureTitles, locale(c)), err.Error()))
}

// badRequest answers a request that could not be decoded.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, onboarding.ErrorNotice(titleFor(invalidRequestTitles, locale(c)), err.Error()))
}
