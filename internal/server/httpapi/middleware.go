package httpapi

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/auth"
)

// BotTokenHeader carries the static token browser clients embed.
const BotTokenHeader = "X-Static-Token"

// attachRequestID copies the id set by the requestid middleware into the
// user context so every log line of the request carries it.
func attachRequestID(c *fiber.Ctx) error {
	id := c.GetRespHeader(fiber.HeaderXRequestID)
	c.SetUserContext(logging.WithRequestID(c.UserContext(), id))
	return c.Next()
}

// BotGuard rejects requests without the static client token. An empty token
// disables the check.
func BotGuard(token string, l logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := c.Get(BotTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			l.Warn(c.UserContext(), "blocked non-browser request", "ip", c.IP(), "path", c.Path())
			return common.ErrForbidden
		}
		return c.Next()
	}
}

// cookies writes the session cookie with the configured attributes.
type cookies struct {
	secure   bool
	sameSite string
	maxAge   time.Duration
}

func (k cookies) set(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(k.maxAge.Seconds()),
		Secure:   k.secure,
		HTTPOnly: true,
		SameSite: k.sameSite,
	})
}

func (k cookies) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(1, 0),
		Secure:   k.secure,
		HTTPOnly: true,
		SameSite: k.sameSite,
	})
}

// RequireSession runs the gate on the session cookie and identity header.
// A reissued token replaces the cookie before the handler runs.
func RequireSession(g *auth.Gate, identityHeader string, k cookies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := g.Resolve(c.UserContext(), c.Cookies(common.SessionCookieName), c.Get(identityHeader))
		if err != nil {
			return err
		}
		if res.Reissued {
			k.set(c, res.Token)
		}
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), res.Principal))
		return c.Next()
	}
}

func principalOf(c *fiber.Ctx) (auth.Principal, error) {
	p, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return auth.Principal{}, common.ErrUnauthorized
	}
	return p, nil
}
