package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/fields"
	"github.com/sazinconstruction/adminkeeper/internal/server/mailer"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpDigits  = 6
	otpSubject = "Your One-Time Password (OTP) for Password Reset"
)

// generateOTP is a seam for tests.
var generateOTP = func() (string, error) { return common.GenerateDigits(otpDigits) }

// ResetOptions are the reset code settings taken from config.
type ResetOptions struct {
	TTL         time.Duration
	MaxAttempts int
}

// ResetService runs the forgotten-password flow: mail a one-time code to an
// active account, then accept it once to set a new password.
type ResetService struct {
	repomanager repomanager.RepositoryManager
	pipeline    *fields.Pipeline
	mailer      mailer.Mailer
	opts        ResetOptions
	now         func() time.Time
	logger      logging.Logger
}

func NewResetService(m repomanager.RepositoryManager, p *fields.Pipeline, ml mailer.Mailer, opts ResetOptions, l logging.Logger) *ResetService {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &ResetService{
		repomanager: m,
		pipeline:    p,
		mailer:      ml,
		opts:        opts,
		now:         time.Now,
		logger:      l.With("module", "reset_service"),
	}
}

// RequestCode stores a hashed code for the account and mails the code.
func (s *ResetService) RequestCode(ctx context.Context, payload map[string]any) error {
	res, err := s.pipeline.Run(resetRequestSchema, payload)
	if err != nil {
		return err
	}
	email := res.Plain["email"]
	key := cryptox.Digest(email)

	if _, err := s.repomanager.Accounts().FindActive(ctx, key); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: active admin not found", common.ErrNotFound)
		}
		return fmt.Errorf("error loading account: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing code: %w", err)
	}

	now := s.now().UTC()
	code := &models.ResetCode{
		LookupKey: key.String(),
		CodeHash:  hash,
		ExpiresAt: now.Add(s.opts.TTL),
		CreatedAt: now,
	}
	if err := s.repomanager.ResetCodes().Insert(ctx, code); err != nil {
		return fmt.Errorf("error storing code: %w", err)
	}

	body := fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password.\nYour one-time password is: %s\n\n"+
		"It expires in %d minutes. If you did not ask for it, ignore this message.\n", email, otp, int(s.opts.TTL.Minutes()))
	if err := s.mailer.Send(ctx, email, otpSubject, body); err != nil {
		s.logger.Error(ctx, "reset code mail failed", "lookup_key", key, "error", err)
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	s.logger.Info(ctx, "reset code issued", "lookup_key", key)
	return nil
}

// ResetPassword checks the newest unused code and, when it matches, sets
// the new password. Every check counts against the attempt limit and the
// attempt is recorded before the code is compared.
func (s *ResetService) ResetPassword(ctx context.Context, payload map[string]any) error {
	res, err := s.pipeline.Run(resetVerifySchema, payload)
	if err != nil {
		return err
	}
	key := cryptox.Digest(res.Plain["email"])
	codes := s.repomanager.ResetCodes()

	code, err := codes.LatestUnused(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		return ErrNoValidCode
	}
	if err != nil {
		return fmt.Errorf("error loading code: %w", err)
	}
	if code.Expired(s.now()) {
		return ErrCodeExpired
	}

	if _, err := codes.ReserveAttempt(ctx, code.ID, s.opts.MaxAttempts); err != nil {
		if errors.Is(err, common.ErrTooManyAttempts) {
			s.logger.Warn(ctx, "reset code attempts exhausted", "lookup_key", key)
			return common.ErrTooManyAttempts
		}
		return fmt.Errorf("error recording attempt: %w", err)
	}

	if bcrypt.CompareHashAndPassword(code.CodeHash, []byte(res.Plain["otp"])) != nil {
		s.logger.Warn(ctx, "wrong reset code", "lookup_key", key)
		return ErrCodeInvalid
	}

	if err := codes.MarkUsed(ctx, code.ID); err != nil {
		// lost a race with a concurrent reset using the same code
		if errors.Is(err, common.ErrNotFound) {
			return ErrNoValidCode
		}
		return fmt.Errorf("error consuming code: %w", err)
	}

	if err := s.repomanager.Accounts().SetPassword(ctx, key, res.Stored["newpassword"]); err != nil {
		return err
	}
	s.logger.Info(ctx, "password reset", "lookup_key", key)
	return nil
}
