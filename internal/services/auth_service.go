package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"go.uber.org/zap"
)

// ErrInvalidRegistrationKey is returned for Admin registrations without the configured key.
var ErrInvalidRegistrationKey = fmt.Errorf("%w: admin registration key is invalid", apierrors.ErrForbidden)

const maxTrackedPhones = 4096

// AuthOptions configures login lockout and admin registration.
type AuthOptions struct {
	MaxLoginAttempts     int
	LockoutDuration      time.Duration
	AdminRegistrationKey string
}

type loginAttempts struct {
	failures    int
	lockedUntil time.Time
}

// AuthService handles registration and login on top of UserStore.
type AuthService struct {
	users       *UserStore
	maxAttempts int
	lockout     time.Duration
	adminKey    string
	now         func() time.Time

	mu       sync.Mutex
	attempts *expirable.LRU[int64, loginAttempts]
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserStore, opts AuthOptions) *AuthService {
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = 5
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = 15 * time.Minute
	}
	return &AuthService{
		users:       users,
		maxAttempts: opts.MaxLoginAttempts,
		lockout:     opts.LockoutDuration,
		adminKey:    opts.AdminRegistrationKey,
		now:         time.Now,
		attempts:    expirable.NewLRU[int64, loginAttempts](maxTrackedPhones, nil, opts.LockoutDuration),
	}
}

// WithClock replaces the time source, mainly for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// RegisterInput represents the information needed to create an account.
type RegisterInput struct {
	PhoneNumber int64
	Name        string
	Position    string
	Password    string
	AdminKey    string
}

// Register creates an account. Admin accounts need the registration key when one is configured.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	position := models.NormalizePosition(input.Position)
	if position == "" {
		position = models.PositionUser
	}

	if position == models.PositionAdmin && s.adminKey != "" &&
		subtle.ConstantTimeCompare([]byte(input.AdminKey), []byte(s.adminKey)) != 1 {
		logger.Warn("Admin registration rejected", zap.Int64("phone", input.PhoneNumber))
		return nil, ErrInvalidRegistrationKey
	}

	return s.users.Create(ctx, input.PhoneNumber, input.Name, position, input.Password)
}

// Login verifies credentials. A locked phone fails exactly like a wrong password.
func (s *AuthService) Login(ctx context.Context, phone int64, password string) (*models.User, error) {
	if s.locked(phone) {
		logger.Warn("Login attempt on locked account", zap.Int64("phone", phone))
		return nil, apierrors.ErrInvalidCredentials
	}

	user, err := s.users.ValidateLogin(ctx, phone, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordFailure(phone)
		return nil, apierrors.ErrInvalidCredentials
	}

	s.attempts.Remove(phone)
	logger.Info("User logged in", zap.Int64("phone", phone))
	return user, nil
}

// CurrentUser resolves the phone stored in a session.
func (s *AuthService) CurrentUser(ctx context.Context, phone int64) (*models.User, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierrors.ErrNotFound
	}
	return user, nil
}

func (s *AuthService) locked(phone int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.attempts.Get(phone)
	if !ok || state.lockedUntil.IsZero() {
		return false
	}
	if s.now().Before(state.lockedUntil) {
		return true
	}
	s.attempts.Remove(phone)
	return false
}

func (s *AuthService) recordFailure(phone int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _ := s.attempts.Get(phone)
	state.failures++
	if state.failures >= s.maxAttempts {
		state.lockedUntil = s.now().Add(s.lockout)
		logger.Warn("Account locked after repeated failures",
			zap.Int64("phone", phone),
			zap.Int("failures", state.failures))
	}
	s.attempts.Add(phone, state)
}
