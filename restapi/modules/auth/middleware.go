package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CookieName is the cookie that may carry the session token.
const CookieName = "auth_token"

// RequireAuth middleware validates the token and blocks guests
func RequireAuth(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		id, err := v.Verify(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired session",
			})
		}

		setIdentity(c, id)
		return c.Next()
	}
}

// OptionalAuth identifies the user if a token is present but does not block guests.
func OptionalAuth(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("is_authenticated", false)

		token := extractToken(c)
		if token == "" {
			return c.Next()
		}

		id, err := v.Verify(c.UserContext(), token)
		if err != nil {
			// Treat invalid/expired tokens as guest access
			return c.Next()
		}

		setIdentity(c, id)
		return c.Next()
	}
}

// IsAuthenticated reports whether a middleware verified the request.
func IsAuthenticated(c *fiber.Ctx) bool {
	ok, _ := c.Locals("is_authenticated").(bool)
	return ok
}

// Email returns the verified email of the request, if any.
func Email(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	return email
}

// Session reports whether the caller is signed in, and as whom.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(SessionResponse{
			Authenticated: IsAuthenticated(c),
			Email:         Email(c),
		})
	}
}

func setIdentity(c *fiber.Ctx, id Identity) {
	c.Locals("is_authenticated", true)
	c.Locals("subject", id.Subject)
	c.Locals("email", id.Email)
	c.SetUserContext(WithIdentity(c.UserContext(), id))
}

// extractToken reads the Bearer token from the Authorization header, falling
// back to the session cookie.
func extractToken(c *fiber.Ctx) string {
	bearerToken := c.Get(fiber.HeaderAuthorization)
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return c.Cookies(CookieName)
}
