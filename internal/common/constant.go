// Package common contains shared constants, sentinel errors and small helpers
// used across the admin backend.
package common

const (
	// SessionCookieName is the cookie that carries the signed session token.
	SessionCookieName = "token"

	// IdentityHeaderName is the default header carrying the client's plaintext
	// identity assertion ({"uid","username","email"}).
	IdentityHeaderName = "X-Admin-Identity"

	// MaxTextLength is the longest free-text field a client may send, in runes.
	MaxTextLength = 2000

	// AccountsCollection and ResetCodesCollection name the document store collections.
	AccountsCollection   = "register"
	ResetCodesCollection = "password_otps"
)
