package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/pkg/helpers"
	"github.com/oksasatya/tasko/pkg/response"
	"github.com/oksasatya/tasko/pkg/validation"
)

// statusFor maps an error kind to its HTTP status. 0 means internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrAlreadyDeposited),
		errors.Is(err, entity.ErrNotAvailable),
		errors.Is(err, entity.ErrConflict),
		errors.Is(err, application.ErrUserExists),
		errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, application.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return 0
}

// respondError writes err as an envelope. Unclassified errors are logged and
// reported as a bare 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if status := statusFor(err); status != 0 {
		response.Error(c, status, err.Error(), nil)
		return
	}
	helpers.RequestEntry(logger, c).WithError(err).Error("request failed")
	response.Error(c, http.StatusInternalServerError, "server error", nil)
}

func respondBindError(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}
