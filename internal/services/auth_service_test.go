package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fathima-sithara/account-service/internal/models"
	"github.com/fathima-sithara/account-service/internal/otp"
	"github.com/fathima-sithara/account-service/internal/repository"
	"github.com/fathima-sithara/account-service/internal/services"
	"github.com/fathima-sithara/account-service/internal/token"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	svc    services.AuthService
	repo   *memoryUserRepo
	mailer *fakeMailer
	tokens *token.Manager
	now    time.Time
	mu     sync.Mutex
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newMemoryUserRepo(),
		mailer: &fakeMailer{},
		tokens: token.NewManager("test-secret", 7*24*time.Hour),
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	engine := otp.NewEngine(24*time.Hour, 15*time.Minute).WithClock(f.clock)
	f.svc = services.NewAuthService(f.repo, f.tokens, engine, f.mailer, nil, 4, zap.NewNop().Sugar())
	return f
}

func TestRegisterIssuesSessionToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessionToken, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	userID, err := f.tokens.Verify(sessionToken)
	require.NoError(t, err)

	u := f.repo.byEmail("ann@x.com")
	require.NotNil(t, u)
	require.Equal(t, u.ID.Hex(), userID)
	require.False(t, u.IsVerified)
	require.NotEqual(t, "pw123456", u.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	first := f.repo.byEmail("ann@x.com")

	_, err = f.svc.Register(ctx, "Other", "ann@x.com", "different")
	require.ErrorIs(t, err, services.ErrUserExists)

	// the case policy makes Ann@X.com the same address
	_, err = f.svc.Register(ctx, "Other", "Ann@X.com", "different")
	require.ErrorIs(t, err, services.ErrUserExists)

	require.Equal(t, first, f.repo.byEmail("ann@x.com"))
}

func TestRegisterMissingDetails(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), "", "ann@x.com", "pw123456")
	require.ErrorIs(t, err, services.ErrMissingDetails)
	_, err = f.svc.Register(context.Background(), "Ann", "ann@x.com", "")
	require.ErrorIs(t, err, services.ErrMissingDetails)
}

func TestRegisterSurvivesWelcomeMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.failWelcome = true

	_, err := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	require.NotNil(t, f.repo.byEmail("ann@x.com"))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "nobody@x.com", "pw123456")
	require.ErrorIs(t, err, services.ErrInvalidEmail)

	_, err = f.svc.Login(ctx, "ann@x.com", "wrong")
	require.ErrorIs(t, err, services.ErrInvalidPassword)

	_, err = f.svc.Login(ctx, "ANN@x.com", "pw123456")
	require.NoError(t, err)
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionToken, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	userID, _ := f.tokens.Verify(sessionToken)

	require.NoError(t, f.svc.SendVerifyOTP(ctx, userID))
	code := f.mailer.lastVerifyCode()
	require.Len(t, code, 6)

	stored := f.repo.byEmail("ann@x.com")
	require.Equal(t, code, stored.VerifyOTP)
	require.Equal(t, f.clock().Add(24*time.Hour), stored.VerifyOTPExpiresAt)

	require.NoError(t, f.svc.VerifyEmail(ctx, userID, code))
	stored = f.repo.byEmail("ann@x.com")
	require.True(t, stored.IsVerified)
	require.Empty(t, stored.VerifyOTP)
	require.True(t, stored.VerifyOTPExpiresAt.IsZero())

	// single use: the consumed code no longer validates
	err = f.svc.VerifyEmail(ctx, userID, code)
	require.ErrorIs(t, err, services.ErrInvalidOTP)

	// and a verified account can't request another verify code
	err = f.svc.SendVerifyOTP(ctx, userID)
	require.ErrorIs(t, err, services.ErrAlreadyVerified)
	after := f.repo.byEmail("ann@x.com")
	require.Empty(t, after.VerifyOTP)
	require.True(t, after.VerifyOTPExpiresAt.IsZero())
}

func TestVerifyOTPExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionToken, _ := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	userID, _ := f.tokens.Verify(sessionToken)

	require.NoError(t, f.svc.SendVerifyOTP(ctx, userID))
	code := f.mailer.lastVerifyCode()

	f.advance(24 * time.Hour)
	err := f.svc.VerifyEmail(ctx, userID, code)
	require.ErrorIs(t, err, services.ErrOTPExpired)
	require.False(t, f.repo.byEmail("ann@x.com").IsVerified)
}

func TestResetPasswordScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ann@x.com", "wrong")
	require.ErrorIs(t, err, services.ErrInvalidPassword)

	require.NoError(t, f.svc.SendResetOTP(ctx, "ann@x.com"))
	code := f.mailer.lastResetCode()
	require.Len(t, code, 6)

	stored := f.repo.byEmail("ann@x.com")
	require.Equal(t, code, stored.ResetOTP)
	require.Equal(t, f.clock().Add(15*time.Minute), stored.ResetOTPExpiresAt)

	require.NoError(t, f.svc.ResetPassword(ctx, "ann@x.com", code, "newpw1"))

	stored = f.repo.byEmail("ann@x.com")
	require.Empty(t, stored.ResetOTP)
	require.True(t, stored.ResetOTPExpiresAt.IsZero())

	_, err = f.svc.Login(ctx, "ann@x.com", "newpw1")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "ann@x.com", "pw123456")
	require.ErrorIs(t, err, services.ErrInvalidPassword)
}

func TestResetOTPExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, f.svc.SendResetOTP(ctx, "ann@x.com"))
	code := f.mailer.lastResetCode()

	f.advance(15 * time.Minute)
	err = f.svc.ResetPassword(ctx, "ann@x.com", code, "newpw1")
	require.ErrorIs(t, err, services.ErrOTPExpired)

	// the old password still works
	_, err = f.svc.Login(ctx, "ann@x.com", "pw123456")
	require.NoError(t, err)
}

func TestSecondResetOTPInvalidatesFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, f.svc.SendResetOTP(ctx, "ann@x.com"))
	first := f.mailer.lastResetCode()
	require.NoError(t, f.svc.SendResetOTP(ctx, "ann@x.com"))
	second := f.mailer.lastResetCode()

	if first != second {
		err = f.svc.ResetPassword(ctx, "ann@x.com", first, "newpw1")
		require.ErrorIs(t, err, services.ErrInvalidOTP)
	}
	require.NoError(t, f.svc.ResetPassword(ctx, "ann@x.com", second, "newpw1"))
}

func TestSendResetOTPUnknownUser(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SendResetOTP(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestSendOTPMailFailureFailsRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionToken, _ := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	userID, _ := f.tokens.Verify(sessionToken)

	f.mailer.failOTP = true
	require.ErrorIs(t, f.svc.SendVerifyOTP(ctx, userID), services.ErrInternal)
	require.ErrorIs(t, f.svc.SendResetOTP(ctx, "ann@x.com"), services.ErrInternal)
}

func TestSendOTPRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	engine := otp.NewEngine(24*time.Hour, 15*time.Minute).WithClock(f.clock)
	limited := services.NewAuthService(f.repo, f.tokens, engine, f.mailer, denyLimiter{}, 4, zap.NewNop().Sugar())

	err = limited.SendResetOTP(ctx, "ann@x.com")
	require.ErrorIs(t, err, services.ErrRateLimited)
	require.Empty(t, f.repo.byEmail("ann@x.com").ResetOTP)
}

func TestUserData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sessionToken, _ := f.svc.Register(ctx, "Ann", "ann@x.com", "pw123456")
	userID, _ := f.tokens.Verify(sessionToken)

	data, err := f.svc.UserData(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Ann", data.Name)
	require.False(t, data.IsVerified)

	_, err = f.svc.UserData(ctx, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

// ---- fakes ----

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by hex id
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]models.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	r.users[u.ID.Hex()] = *u
	return nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID.Hex()]; !ok {
		return repository.ErrUserNotFound
	}
	r.users[u.ID.Hex()] = *u
	return nil
}

// byEmail is a test-side peek at the stored document.
func (r *memoryUserRepo) byEmail(email string) *models.User {
	u, err := r.FindByEmail(context.Background(), email)
	if err != nil {
		return nil
	}
	return u
}

type fakeMailer struct {
	mu          sync.Mutex
	failWelcome bool
	failOTP     bool
	verifyCodes []string
	resetCodes  []string
}

func (m *fakeMailer) SendWelcome(_ context.Context, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWelcome {
		return errors.New("smtp relay down")
	}
	return nil
}

func (m *fakeMailer) SendVerifyOTP(_ context.Context, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP {
		return errors.New("smtp relay down")
	}
	m.verifyCodes = append(m.verifyCodes, code)
	return nil
}

func (m *fakeMailer) SendResetOTP(_ context.Context, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP {
		return errors.New("smtp relay down")
	}
	m.resetCodes = append(m.resetCodes, code)
	return nil
}

func (m *fakeMailer) lastVerifyCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.verifyCodes) == 0 {
		return ""
	}
	return m.verifyCodes[len(m.verifyCodes)-1]
}

func (m *fakeMailer) lastResetCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resetCodes) == 0 {
		return ""
	}
	return m.resetCodes[len(m.resetCodes)-1]
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }
