package services

import (
	"context"
	"errors"
)

// Failure kinds. Handlers branch on these with errors.Is and map them to the
// wire shape {success:false, message}; the message is all a client sees.
var (
	ErrMissingDetails  = errors.New("missing details")
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidOTP      = errors.New("invalid OTP")
	ErrOTPExpired      = errors.New("OTP expired")
	ErrAlreadyVerified = errors.New("account already verified")
	ErrRateLimited     = errors.New("too many OTP requests, please try again later")
	ErrInternal        = errors.New("internal server error")
)

// UserData is the profile slice exposed to an authenticated client.
type UserData struct {
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// AuthService defines the account lifecycle operations.
type AuthService interface {
	// Register creates the account and returns a session token. The welcome
	// email is advisory; its failure never rolls back the account.
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	SendVerifyOTP(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, userID, code string) error
	SendResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	UserData(ctx context.Context, userID string) (*UserData, error)
}

// Mailer is the notification channel. OTP sends are part of the operation's
// correctness contract: an undelivered code is useless, so those failures
// surface to the caller.
type Mailer interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
	SendVerifyOTP(ctx context.Context, toEmail, code string) error
	SendResetOTP(ctx context.Context, toEmail, code string) error
}

// Limiter caps OTP sends per address.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
