package middlewares

import (
	"strings"
	"time"

	t_token "direct_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	// QueryToken token in query name
	QueryToken = "auth"

	// CookieToken token in cookie name
	CookieToken = "auth_token"

	// HeaderToken token in header name
	HeaderToken = "X-Auth-Token"

	// RefreshHeader response header carrying a refreshed token
	RefreshHeader = "X-Refresh-Token"

	// TokenUserID get user id from token, set c.locals name
	TokenUserID = "UserID"
	// TokenUsername get username from token, set c.locals name
	TokenUsername = "Username"
)

// refreshWindow: tokens expiring within this window get a fresh one attached
var refreshWindow = 5 * time.Minute

// JWTMiddleware validates the JWT from query, cookie, or header and stores
// the caller identity in locals. Tokens close to expiry get a sliding
// refresh via the X-Refresh-Token response header.
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query(QueryToken)

		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}

		if tokenStr == "" {
			tokenStr = c.Get(HeaderToken)
		}

		if tokenStr == "" {
			auth := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") {
				tokenStr = auth[len("Bearer "):]
			}
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := t_token.ParseJWT(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if claims.ExpiresWithin(refreshWindow) {
			if fresh, err := t_token.GenerateJWT(claims.UserID, claims.Username, claims.Issuer); err == nil {
				c.Set(RefreshHeader, fresh)
			}
		}

		c.Locals(TokenUserID, claims.UserID)
		c.Locals(TokenUsername, claims.Username)

		return c.Next()
	}
}
