package routes

import (
	"github.com/fathima-sithara/account-service/internal/handlers"
	"github.com/fathima-sithara/account-service/internal/middleware"
	"github.com/fathima-sithara/account-service/internal/token"
	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App, h *handlers.Handler, tokens *token.Manager) {
	sessionGate := middleware.SessionAuth(tokens)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API working")
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Post("/send-verify-otp", sessionGate, h.SendVerifyOTP)
	// verify-account needs the caller's identity, so it sits behind the gate
	// and takes only the OTP in the body.
	auth.Post("/verify-account", sessionGate, h.VerifyAccount)
	auth.Get("/is-auth", sessionGate, h.IsAuthenticated)
	auth.Post("/send-reset-otp", h.SendResetOTP)
	auth.Post("/reset-password", h.ResetPassword)

	user := api.Group("/user")
	user.Get("/data", sessionGate, h.GetUserData)
}
