package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/services"
)

const messageServerError = "Server error"

type mapped struct {
	target  error
	status  int
	message string
}

// errorTable is checked in order, so specific errors come before the
// sentinels they wrap.
var errorTable = []mapped{
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials"},
	{services.ErrEmailMismatch, fiber.StatusUnauthorized, "Unauthorized: Email mismatch"},
	{services.ErrSelfAction, fiber.StatusForbidden, "Cannot change or delete own account"},
	{services.ErrInvalidTransition, fiber.StatusBadRequest, "Status change not allowed"},
	{services.ErrStatusChanged, fiber.StatusConflict, "Admin status changed, reload and try again"},
	{services.ErrNoValidCode, fiber.StatusBadRequest, "No valid OTP found"},
	{services.ErrCodeExpired, fiber.StatusBadRequest, "OTP expired"},
	{services.ErrCodeInvalid, fiber.StatusBadRequest, "Invalid OTP"},
	{common.ErrTooManyAttempts, fiber.StatusTooManyRequests, "Too many attempts"},
	{common.ErrSanitizationRejected, fiber.StatusBadRequest, "Unsafe data for MongoDB"},
	{common.ErrTokenInvalid, fiber.StatusUnauthorized, "Unauthorized"},
	{common.ErrTokenMismatch, fiber.StatusUnauthorized, "Unauthorized"},
	{common.ErrDecryptionFailed, fiber.StatusUnauthorized, "Unauthorized"},
	{common.ErrAccountNotActive, fiber.StatusBadRequest, "Active admin not found with this email"},
	{common.ErrPreconditionFailed, fiber.StatusUnauthorized, "Active admin not found with this email"},
	{common.ErrUnauthorized, fiber.StatusUnauthorized, "Unauthorized"},
	{common.ErrForbidden, fiber.StatusForbidden, "Forbidden"},
	{common.ErrNotFound, fiber.StatusNotFound, "Admin not found"},
	{common.ErrAlreadyExists, fiber.StatusConflict, "User already exists with this email"},
}

// statusOf maps err to a status code and the body's message value. The
// message never carries wrapped internal detail.
func statusOf(err error) (int, any) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest, ve.Fields
	}
	var mf *common.MissingFieldsError
	if errors.As(err, &mf) {
		return fiber.StatusBadRequest, mf.Error()
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, messageServerError
}

// ErrorHandler is the single place where errors become responses.
func ErrorHandler(l logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := statusOf(err)
		if status >= fiber.StatusInternalServerError {
			l.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		} else {
			l.Debug(c.UserContext(), "request rejected", "path", c.Path(), "status", status, "error", err)
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
	}
}
