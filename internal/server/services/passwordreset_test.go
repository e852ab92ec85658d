package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOTP(t *testing.T, code string) {
	t.Helper()
	prev := generateOTP
	generateOTP = func() (string, error) { return code, nil }
	t.Cleanup(func() { generateOTP = prev })
}

func TestResetFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.seed(t, "Alice", "a@b.com", "Old123", models.StatusActive)
	withOTP(t, "123456")

	require.NoError(t, e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "a@b.com")}))
	require.Len(t, e.mail.sent, 1)
	assert.Equal(t, "a@b.com", e.mail.sent[0].to)
	assert.Equal(t, otpSubject, e.mail.sent[0].subject)
	assert.Contains(t, e.mail.sent[0].body, "123456")

	code, err := e.mgr.ResetCodes().LatestUnused(ctx, cryptox.Digest("a@b.com"))
	require.NoError(t, err)
	assert.NotContains(t, string(code.CodeHash), "123456")

	verify := func(otp, pw string) error {
		return e.resets.ResetPassword(ctx, map[string]any{
			"email": e.wire(t, "a@b.com"), "otp": e.wire(t, otp), "newpassword": e.wire(t, pw),
		})
	}

	assert.ErrorIs(t, verify("654321", "New123"), ErrCodeInvalid)
	require.NoError(t, verify("123456", "New123"))
	assert.ErrorIs(t, verify("123456", "Again1"), ErrNoValidCode)

	_, err = e.accounts.Login(ctx, map[string]any{"email": e.wire(t, "a@b.com"), "password": e.wire(t, "New123")})
	require.NoError(t, err)
}

func TestResetRequest_Rejections(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.seed(t, "Bob", "bob@b.com", "pw", models.StatusPending)

	err := e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "bob@b.com")})
	assert.ErrorIs(t, err, common.ErrNotFound)
	err = e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "nobody@b.com")})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, e.mail.sent)

	e.seed(t, "Alice", "a@b.com", "pw", models.StatusActive)
	e.mail.err = errors.New("smtp down")
	err = e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "a@b.com")})
	assert.ErrorContains(t, err, "failed to send OTP")
}

func TestResetPassword_ExpiryAndAttempts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.seed(t, "Alice", "a@b.com", "pw", models.StatusActive)
	withOTP(t, "111111")

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e.resets.now = func() time.Time { return now }

	verify := func(otp string) error {
		return e.resets.ResetPassword(ctx, map[string]any{
			"email": e.wire(t, "a@b.com"), "otp": e.wire(t, otp), "newpassword": e.wire(t, "New123"),
		})
	}

	assert.ErrorIs(t, verify("111111"), ErrNoValidCode)

	require.NoError(t, e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "a@b.com")}))
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, verify("999999"), ErrCodeInvalid)
	}
	assert.ErrorIs(t, verify("111111"), common.ErrTooManyAttempts)

	now = now.Add(time.Minute)
	require.NoError(t, e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "a@b.com")}))
	now = now.Add(10 * time.Minute)
	assert.ErrorIs(t, verify("111111"), ErrCodeExpired)

	err := verify("12ab56")
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Invalid OTP format", ve.Fields["otp"])
}

func TestResetPassword_ConcurrentGuessesRespectLimit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.seed(t, "Alice", "a@b.com", "pw", models.StatusActive)
	withOTP(t, "111111")
	require.NoError(t, e.resets.RequestCode(ctx, map[string]any{"email": e.wire(t, "a@b.com")}))

	email, otp, pw := e.wire(t, "a@b.com"), e.wire(t, "999999"), e.wire(t, "New123")

	const guesses = 40
	errs := make([]error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.resets.ResetPassword(ctx, map[string]any{"email": email, "otp": otp, "newpassword": pw})
		}(i)
	}
	wg.Wait()

	var compared, limited int
	for _, err := range errs {
		switch {
		case errors.Is(err, ErrCodeInvalid):
			compared++
		case errors.Is(err, common.ErrTooManyAttempts):
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, compared)
	assert.Equal(t, guesses-5, limited)

	code, err := e.mgr.ResetCodes().LatestUnused(ctx, cryptox.Digest("a@b.com"))
	require.NoError(t, err)
	assert.Equal(t, 5, code.Attempts)
}
