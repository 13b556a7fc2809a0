package handlers

import (
	"errors"
	"time"

	"github.com/fathima-sithara/account-service/internal/middleware"
	"github.com/fathima-sithara/account-service/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// sessionCookieName is the transport binding for the session token.
const sessionCookieName = "token"

type Handler struct {
	svc        services.AuthService
	validate   *validator.Validate
	production bool
	sessionTTL time.Duration
	logger     *zap.SugaredLogger
}

func NewHandler(svc services.AuthService, production bool, sessionTTL time.Duration, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		svc:        svc,
		validate:   validator.New(),
		production: production,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Missing details")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	sessionToken, err := h.svc.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	h.setSessionCookie(c, sessionToken)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Account created",
	})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	sessionToken, err := h.svc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	h.setSessionCookie(c, sessionToken)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged in successfully",
	})
}

// Logout only clears the cookie. Tokens are stateless, so an already-issued
// token stays valid until its natural expiry.
func (h *Handler) Logout(c *fiber.Ctx) error {
	h.clearSessionCookie(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

func (h *Handler) SendVerifyOTP(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.UserIDKey).(string)
	if err := h.svc.SendVerifyOTP(c.Context(), userID); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Verification OTP sent on email",
	})
}

type verifyAccountReq struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

func (h *Handler) VerifyAccount(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.UserIDKey).(string)
	var req verifyAccountReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Missing details")
	}
	if err := h.validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid OTP")
	}

	if err := h.svc.VerifyEmail(c.Context(), userID, req.OTP); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email verified successfully",
	})
}

// IsAuthenticated only confirms what the session gate already established.
func (h *Handler) IsAuthenticated(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

type sendResetOTPReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) SendResetOTP(c *fiber.Ctx) error {
	var req sendResetOTPReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Email is required")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	if err := h.svc.SendResetOTP(c.Context(), req.Email); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent to your email",
	})
}

type resetPasswordReq struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Email, OTP and new password are required")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	if err := h.svc.ResetPassword(c.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password has been reset successfully",
	})
}

// setSessionCookie reproduces the cookie contract exactly: HTTPOnly always,
// Secure and SameSite=None only in production, Strict otherwise.
func (h *Handler) setSessionCookie(c *fiber.Ctx, value string) {
	c.Cookie(h.sessionCookie(value, int(h.sessionTTL.Seconds())))
}

func (h *Handler) clearSessionCookie(c *fiber.Ctx) {
	cookie := h.sessionCookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(cookie)
}

func (h *Handler) sessionCookie(value string, maxAge int) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteStrictMode
	if h.production {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   h.production,
		SameSite: sameSite,
	}
}

// respondError maps service failure kinds onto the wire shape. Clients only
// ever see {success:false, message}; statuses are conventional extras.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingDetails):
		return fail(c, fiber.StatusBadRequest, "Missing details")
	case errors.Is(err, services.ErrUserExists):
		return fail(c, fiber.StatusConflict, "User already exist")
	case errors.Is(err, services.ErrInvalidEmail):
		return fail(c, fiber.StatusUnauthorized, "Invalid email")
	case errors.Is(err, services.ErrInvalidPassword):
		return fail(c, fiber.StatusUnauthorized, "Invalid password")
	case errors.Is(err, services.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrInvalidOTP):
		return fail(c, fiber.StatusBadRequest, "Invalid OTP")
	case errors.Is(err, services.ErrOTPExpired):
		return fail(c, fiber.StatusGone, "OTP expired")
	case errors.Is(err, services.ErrAlreadyVerified):
		return fail(c, fiber.StatusBadRequest, "Account already verified")
	case errors.Is(err, services.ErrRateLimited):
		return fail(c, fiber.StatusTooManyRequests, "Too many requests, please try again later")
	default:
		h.logger.Errorw("request failed", "path", c.Path(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}

func (h *Handler) validationFail(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if fe.Tag() == "email" {
				return fail(c, fiber.StatusBadRequest, "Invalid email")
			}
		}
	}
	return fail(c, fiber.StatusBadRequest, "Missing details")
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
