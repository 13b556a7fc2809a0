package handlers

import (
	"github.com/fathima-sithara/account-service/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// GetUserData returns the profile slice for the authenticated user.
func (h *Handler) GetUserData(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.UserIDKey).(string)
	data, err := h.svc.UserData(c.Context(), userID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"userData": data,
	})
}
