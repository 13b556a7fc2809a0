package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/fathima-sithara/account-service/internal/models"
)

// Purpose selects which code/expiry pair on the user document an operation
// works against. The two pairs have independent lifecycles.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

const (
	DefaultVerifyWindow = 24 * time.Hour
	DefaultResetWindow  = 15 * time.Minute
)

var (
	ErrInvalidCode = errors.New("invalid OTP")
	ErrExpired     = errors.New("OTP expired")
)

// Engine generates and validates single-use numeric codes stored on the user
// document. Issue overwrites any prior code of the same purpose, so at most
// one code per purpose is live at a time. Validate clears the pair on
// success, which is what makes a code single-use.
type Engine struct {
	verifyWindow time.Duration
	resetWindow  time.Duration
	now          func() time.Time
}

func NewEngine(verifyWindow, resetWindow time.Duration) *Engine {
	if verifyWindow <= 0 {
		verifyWindow = DefaultVerifyWindow
	}
	if resetWindow <= 0 {
		resetWindow = DefaultResetWindow
	}
	return &Engine{
		verifyWindow: verifyWindow,
		resetWindow:  resetWindow,
		now:          time.Now,
	}
}

// WithClock overrides the engine's time source. Tests use this to step past
// expiry windows.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Issue writes a fresh code and absolute expiry onto u for the given purpose,
// replacing whatever pair was there. The caller persists u and delivers the
// returned code; it must never be logged.
func (e *Engine) Issue(u *models.User, p Purpose) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	expiry := e.now().Add(e.window(p))
	switch p {
	case PurposeReset:
		u.ResetOTP = code
		u.ResetOTPExpiresAt = expiry
	default:
		u.VerifyOTP = code
		u.VerifyOTPExpiresAt = expiry
	}
	return code, nil
}

// Validate checks candidate against the stored pair for p. Check order is
// fixed: empty or mismatched code fails ErrInvalidCode before expiry is even
// looked at; a matching code at or past its expiry fails ErrExpired. On
// success the pair is cleared and the caller persists u.
func (e *Engine) Validate(u *models.User, p Purpose, candidate string) error {
	stored, expiry := e.pair(u, p)
	if stored == "" || stored != candidate {
		return ErrInvalidCode
	}
	if !e.now().Before(expiry) {
		return ErrExpired
	}
	e.clear(u, p)
	return nil
}

func (e *Engine) window(p Purpose) time.Duration {
	if p == PurposeReset {
		return e.resetWindow
	}
	return e.verifyWindow
}

func (e *Engine) pair(u *models.User, p Purpose) (string, time.Time) {
	if p == PurposeReset {
		return u.ResetOTP, u.ResetOTPExpiresAt
	}
	return u.VerifyOTP, u.VerifyOTPExpiresAt
}

func (e *Engine) clear(u *models.User, p Purpose) {
	if p == PurposeReset {
		u.ResetOTP = ""
		u.ResetOTPExpiresAt = time.Time{}
		return
	}
	u.VerifyOTP = ""
	u.VerifyOTPExpiresAt = time.Time{}
}

// generateCode draws a uniform 6-digit code from [100000, 999999], so a code
// always has exactly six digits and no leading zero.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
