package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fathima-sithara/account-service/internal/models"
	"github.com/fathima-sithara/account-service/internal/otp"
	"github.com/fathima-sithara/account-service/internal/repository"
	"github.com/fathima-sithara/account-service/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	userRepo   repository.UserRepository
	tokens     *token.Manager
	otpEngine  *otp.Engine
	mailer     Mailer
	limiter    Limiter
	bcryptCost int
	logger     *zap.SugaredLogger
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *token.Manager,
	otpEngine *otp.Engine,
	mailer Mailer,
	limiter Limiter,
	bcryptCost int,
	logger *zap.SugaredLogger,
) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		otpEngine:  otpEngine,
		mailer:     mailer,
		limiter:    limiter,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// normalizeEmail fixes the case policy: emails are compared and stored
// lowercased, at every entry point.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return "", ErrMissingDetails
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("failed to check existing user: %w", ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", ErrInternal)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("failed to create user: %w", ErrInternal)
	}

	sessionToken, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", ErrInternal)
	}

	// Welcome email is best-effort; the account is already the source of truth.
	go func() {
		mailCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if mailErr := s.mailer.SendWelcome(mailCtx, user.Email, user.Name); mailErr != nil {
			s.logger.Warnw("failed to send welcome email", "email", user.Email, "error", mailErr)
		}
	}()

	return sessionToken, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrMissingDetails
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidEmail
		}
		return "", fmt.Errorf("failed to look up user: %w", ErrInternal)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidPassword
	}

	sessionToken, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", ErrInternal)
	}
	return sessionToken, nil
}

func (s *authService) SendVerifyOTP(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", ErrInternal)
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.checkRateLimit(ctx, "verify:"+user.Email); err != nil {
		return err
	}

	code, err := s.otpEngine.Issue(user, otp.PurposeVerify)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", ErrInternal)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store OTP: %w", ErrInternal)
	}

	if err := s.mailer.SendVerifyOTP(ctx, user.Email, code); err != nil {
		s.logger.Errorw("failed to send verification OTP email", "email", user.Email, "error", err)
		return fmt.Errorf("failed to send verification email: %w", ErrInternal)
	}
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, userID, code string) error {
	if userID == "" || code == "" {
		return ErrMissingDetails
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", ErrInternal)
	}

	if err := s.otpEngine.Validate(user, otp.PurposeVerify, code); err != nil {
		return mapOTPError(err)
	}

	user.IsVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update verification status: %w", ErrInternal)
	}
	return nil
}

func (s *authService) SendResetOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingDetails
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", ErrInternal)
	}

	if err := s.checkRateLimit(ctx, "reset:"+user.Email); err != nil {
		return err
	}

	code, err := s.otpEngine.Issue(user, otp.PurposeReset)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", ErrInternal)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store OTP: %w", ErrInternal)
	}

	if err := s.mailer.SendResetOTP(ctx, user.Email, code); err != nil {
		s.logger.Errorw("failed to send reset OTP email", "email", user.Email, "error", err)
		return fmt.Errorf("failed to send reset email: %w", ErrInternal)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingDetails
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", ErrInternal)
	}

	if err := s.otpEngine.Validate(user, otp.PurposeReset, code); err != nil {
		return mapOTPError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", ErrInternal)
	}
	user.PasswordHash = string(hash)

	// Validate already cleared the reset pair on the document; one update
	// persists the new hash and the cleared pair together.
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", ErrInternal)
	}
	return nil
}

func (s *authService) UserData(ctx context.Context, userID string) (*UserData, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", ErrInternal)
	}
	return &UserData{Name: user.Name, IsVerified: user.IsVerified}, nil
}

func (s *authService) checkRateLimit(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check OTP rate limit: %w", ErrInternal)
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		return ErrInvalidOTP
	case errors.Is(err, otp.ErrExpired):
		return ErrOTPExpired
	default:
		return fmt.Errorf("failed to validate OTP: %w", ErrInternal)
	}
}
