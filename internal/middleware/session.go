package middleware

import (
	"github.com/fathima-sithara/account-service/internal/token"
	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the locals key the session gate stores the authenticated user
// id under.
const UserIDKey = "userID"

// SessionAuth extracts the session cookie, verifies it and injects the user
// id for downstream handlers. Missing, tampered and expired tokens all get
// the same answer.
func SessionAuth(tokens *token.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies("token")
		if cookie == "" {
			return unauthorized(c)
		}
		userID, err := tokens.Verify(cookie)
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": "Not authorized, login again",
	})
}
