// Package auth issues and verifies admin session tokens and resolves a
// verified session to an active account.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
)

// ErrTokenExpired is returned for expired tokens under RejectExpired, or past
// the rotation window. It matches common.ErrTokenInvalid.
var ErrTokenExpired = fmt.Errorf("%w: token expired", common.ErrTokenInvalid)

// RotationPolicy decides what happens to a valid but expired token.
type RotationPolicy int

const (
	// RotateExpired mints a replacement token and lets the request proceed.
	RotateExpired RotationPolicy = iota
	// RejectExpired fails the request.
	RejectExpired
)

// ParseRotationPolicy maps the config values "rotate" and "reject".
func ParseRotationPolicy(s string) (RotationPolicy, error) {
	switch s {
	case "rotate", "":
		return RotateExpired, nil
	case "reject":
		return RejectExpired, nil
	}
	return 0, fmt.Errorf("unknown rotation policy %q", s)
}

// Identity is the plaintext identity a client asserts in the identity header.
type Identity struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ParseIdentity decodes the identity header value.
func ParseIdentity(raw string) (Identity, error) {
	var id Identity
	if raw == "" {
		return id, fmt.Errorf("%w: missing identity", common.ErrTokenInvalid)
	}
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return id, fmt.Errorf("%w: malformed identity", common.ErrTokenInvalid)
	}
	if id.UID == "" || id.Email == "" {
		return id, fmt.Errorf("%w: incomplete identity", common.ErrTokenInvalid)
	}
	return id, nil
}

func (i Identity) equal(o Identity) bool {
	eq := subtle.ConstantTimeCompare([]byte(i.UID), []byte(o.UID)) &
		subtle.ConstantTimeCompare([]byte(i.Username), []byte(o.Username)) &
		subtle.ConstantTimeCompare([]byte(i.Email), []byte(o.Email))
	return eq == 1
}

// Claims carries the subject id plus the username and email as transport-key
// ciphertext; plaintext identity never appears in a token.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	UserEmail string `json:"userEmail"`
}

// Outcome is the terminal state of a verification.
type Outcome int

const (
	Rejected Outcome = iota
	Verified
	Reissued
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Reissued:
		return "reissued"
	default:
		return "rejected"
	}
}

// Verification is the result of Sessions.Verify. On Reissued, Token holds
// the replacement and ExpiresAt its expiry; the caller decides whether to
// hand it to the client. Err is set only when Outcome is Rejected.
type Verification struct {
	Outcome   Outcome
	Identity  Identity
	Token     string
	ExpiresAt time.Time
	Err       error
}

func reject(err error) Verification {
	return Verification{Outcome: Rejected, Err: err}
}

// Sessions signs and verifies HS256 session tokens.
type Sessions struct {
	signingKey []byte
	transport  cryptox.TransportKey
	ttl        time.Duration
	policy     RotationPolicy
	now        func() time.Time
}

func NewSessions(signingKey []byte, transport cryptox.TransportKey, ttl time.Duration, policy RotationPolicy) *Sessions {
	return &Sessions{
		signingKey: signingKey,
		transport:  transport,
		ttl:        ttl,
		policy:     policy,
		now:        time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Issue mints a token for id, encrypting username and email under the
// transport key.
func (s *Sessions) Issue(id Identity) (string, time.Time, error) {
	return s.issueAt(id, s.now().Add(s.ttl))
}

func (s *Sessions) issueAt(id Identity, expires time.Time) (string, time.Time, error) {
	name, err := cryptox.Encrypt(id.Username, s.transport)
	if err != nil {
		return "", time.Time{}, err
	}
	email, err := cryptox.Encrypt(id.Email, s.transport)
	if err != nil {
		return "", time.Time{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username:  name,
		UserEmail: email,
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Refresh mints a replacement token for an identity that was already verified.
func (s *Sessions) Refresh(id Identity) (string, time.Time, error) {
	return s.Issue(id)
}

// Verify checks, in order: presence of token and identity, signature,
// decryptability of the identity claims, equality with the asserted
// identity, presence of an expiry, and the expiry itself.
func (s *Sessions) Verify(token string, asserted Identity) Verification {
	if token == "" || asserted.UID == "" || asserted.Email == "" {
		return reject(fmt.Errorf("%w: missing token or identity", common.ErrTokenInvalid))
	}

	claims, err := s.parse(token)
	if err != nil {
		return reject(fmt.Errorf("%w: %v", common.ErrTokenInvalid, err))
	}

	name, err := cryptox.Decrypt(claims.Username, s.transport)
	if err != nil {
		return reject(fmt.Errorf("%w: username claim", common.ErrTokenInvalid))
	}
	email, err := cryptox.Decrypt(claims.UserEmail, s.transport)
	if err != nil {
		return reject(fmt.Errorf("%w: email claim", common.ErrTokenInvalid))
	}

	fromToken := Identity{UID: claims.Subject, Username: name, Email: email}
	if !fromToken.equal(asserted) {
		return reject(common.ErrTokenMismatch)
	}

	if claims.ExpiresAt == nil {
		return reject(fmt.Errorf("%w: no expiry", common.ErrTokenInvalid))
	}

	if claims.ExpiresAt.Time.Before(s.now()) {
		// Rotation window is one TTL past expiry; Gate.Revoke keeps entries as long.
		if s.policy == RejectExpired || claims.ExpiresAt.Time.Add(s.ttl).Before(s.now()) {
			return reject(ErrTokenExpired)
		}
		fresh, exp, err := s.Refresh(asserted)
		if err != nil {
			return reject(err)
		}
		return Verification{Outcome: Reissued, Identity: asserted, Token: fresh, ExpiresAt: exp}
	}

	return Verification{Outcome: Verified, Identity: fromToken, Token: token, ExpiresAt: claims.ExpiresAt.Time}
}

// parse checks the HS256 signature and decodes the claims. Registered
// claims are not validated here; Verify handles expiry itself.
func (s *Sessions) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Expiry returns the expiry of a correctly signed token without checking
// its identity claims. Used by logout.
func (s *Sessions) Expiry(token string) (time.Time, bool) {
	claims, err := s.parse(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
