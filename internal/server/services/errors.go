package services

import (
	"fmt"

	"github.com/sazinconstruction/adminkeeper/internal/common"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", common.ErrUnauthorized)
	ErrEmailMismatch      = fmt.Errorf("%w: email does not belong to the session", common.ErrUnauthorized)
	ErrSelfAction         = fmt.Errorf("%w: cannot act on own account", common.ErrForbidden)
	ErrInvalidTransition  = fmt.Errorf("%w: status transition not allowed", common.ErrValidationFailed)
	ErrStatusChanged      = fmt.Errorf("%w: account status changed meanwhile", common.ErrPreconditionFailed)

	ErrNoValidCode = fmt.Errorf("%w: no valid OTP found", common.ErrValidationFailed)
	ErrCodeExpired = fmt.Errorf("%w: OTP expired", common.ErrValidationFailed)
	ErrCodeInvalid = fmt.Errorf("%w: invalid OTP", common.ErrValidationFailed)
)

func confirmMismatch() error {
	return &common.ValidationError{Fields: map[string]string{"confirmPassword": "Confirm Passwords do not match"}}
}
