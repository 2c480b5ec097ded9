package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yukikurage/kanban-board/internal/config"
	"github.com/yukikurage/kanban-board/internal/constants"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/logger"
	"github.com/yukikurage/kanban-board/internal/models"
	"github.com/yukikurage/kanban-board/internal/repository"
	"go.uber.org/zap"
)

// UserStoreOptions tunes caching and the activation policy for new accounts.
type UserStoreOptions struct {
	CacheTTL         time.Duration
	CacheSize        int
	ActivationPolicy string
}

// UserStore manages phone-keyed accounts with a read-through cache.
type UserStore struct {
	repo       repository.UserRepository
	passwords  *PasswordService
	cache      *expirable.LRU[int64, models.User]
	activation string

	dummyOnce sync.Once
	dummyHash string
}

// NewUserStore creates a UserStore
func NewUserStore(repo repository.UserRepository, passwords *PasswordService, opts UserStoreOptions) *UserStore {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	if opts.ActivationPolicy == "" {
		opts.ActivationPolicy = config.ActivateAll
	}
	return &UserStore{
		repo:       repo,
		passwords:  passwords,
		cache:      expirable.NewLRU[int64, models.User](opts.CacheSize, nil, opts.CacheTTL),
		activation: opts.ActivationPolicy,
	}
}

// Create registers a new account.
func (s *UserStore) Create(ctx context.Context, phone int64, name string, position models.Position, password string) (*models.User, error) {
	name = strings.TrimSpace(name)

	var problems []string
	if !ValidPhoneNumber(phone) {
		problems = append(problems, fmt.Sprintf("phone number must have %d to %d digits", constants.MinPhoneDigits, constants.MaxPhoneDigits))
	}
	if n := utf8.RuneCountInString(name); n < constants.MinNameLength {
		problems = append(problems, fmt.Sprintf("name must be at least %d characters", constants.MinNameLength))
	} else if n > constants.MaxNameLength {
		problems = append(problems, fmt.Sprintf("name must be %d characters or less", constants.MaxNameLength))
	}
	if !position.Valid() {
		problems = append(problems, fmt.Sprintf("position must be one of %v", models.Positions))
	}
	if err := apierrors.NewValidationError(problems); err != nil {
		return nil, err
	}

	if s.passwords.IsCommon(password) {
		return nil, &apierrors.WeakPasswordError{Reasons: []string{"password is too common"}}
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		PhoneNumber:  phone,
		Name:         name,
		Position:     position,
		PasswordHash: hash,
		IsActive:     s.activeOnCreate(position),
		CreatedAt:    now,
		LastModified: now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.cache.Remove(phone)

	logger.Info("User created", zap.Int64("phone", phone), zap.String("position", string(position)))
	return user, nil
}

func (s *UserStore) activeOnCreate(position models.Position) bool {
	if s.activation == config.ActivateAdminOnly {
		return position == models.PositionAdmin
	}
	return true
}

// GetByPhone returns nil, nil when no account uses the phone number.
func (s *UserStore) GetByPhone(ctx context.Context, phone int64) (*models.User, error) {
	if cached, ok := s.cache.Get(phone); ok {
		user := cached
		return &user, nil
	}

	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	s.cache.Add(phone, *user)
	return user, nil
}

func (s *UserStore) Exists(ctx context.Context, phone int64) (bool, error) {
	user, err := s.GetByPhone(ctx, phone)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// ValidateLogin returns nil, nil for an unknown phone, an inactive account or a
// wrong password alike. It always reads from storage.
func (s *UserStore) ValidateLogin(ctx context.Context, phone int64, password string) (*models.User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if repository.IsNotFound(err) {
			s.passwords.Verify(password, s.timingHash())
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.passwords.Verify(password, user.PasswordHash) || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// timingHash keeps the unknown-phone path as slow as a real comparison.
func (s *UserStore) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash("Placeholder0")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

// SetActive is idempotent and returns false when the phone is unknown.
func (s *UserStore) SetActive(ctx context.Context, phone int64, active bool) (bool, error) {
	found, err := s.repo.SetActive(ctx, phone, active)
	s.cache.Remove(phone)
	if err != nil {
		return false, fmt.Errorf("failed to update activation: %w", err)
	}
	if found {
		logger.Info("User activation changed", zap.Int64("phone", phone), zap.Bool("active", active))
	}
	return found, nil
}

func (s *UserStore) ListAll(ctx context.Context, activeOnly bool) ([]models.User, error) {
	users, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserStore) Search(ctx context.Context, term string) ([]models.User, error) {
	users, err := s.repo.Search(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// DisplayName renders "Name (phone)", or "Unknown User (phone)" for orphaned references.
func (s *UserStore) DisplayName(ctx context.Context, phone int64) string {
	user, err := s.GetByPhone(ctx, phone)
	if err != nil {
		logger.Warn("User lookup failed", zap.Int64("phone", phone), zap.Error(err))
	}
	return displayName(user, phone)
}

// DisplayNames resolves many phones with a single query for the cache misses.
func (s *UserStore) DisplayNames(ctx context.Context, phones []int64) map[int64]string {
	names := make(map[int64]string, len(phones))
	var missing []int64
	for _, phone := range phones {
		if _, done := names[phone]; done {
			continue
		}
		if cached, ok := s.cache.Get(phone); ok {
			names[phone] = displayName(&cached, phone)
			continue
		}
		names[phone] = displayName(nil, phone)
		missing = append(missing, phone)
	}

	if len(missing) > 0 {
		users, err := s.repo.FindByPhones(ctx, missing)
		if err != nil {
			logger.Warn("User preload failed", zap.Error(err))
			return names
		}
		for i := range users {
			s.cache.Add(users[i].PhoneNumber, users[i])
			names[users[i].PhoneNumber] = displayName(&users[i], users[i].PhoneNumber)
		}
	}
	return names
}

func displayName(user *models.User, phone int64) string {
	if user == nil {
		return fmt.Sprintf("Unknown User (%d)", phone)
	}
	return fmt.Sprintf("%s (%d)", user.Name, phone)
}

// ValidPhoneNumber accepts positive numbers with 10 to 15 digits.
func ValidPhoneNumber(phone int64) bool {
	if phone <= 0 {
		return false
	}
	digits := len(fmt.Sprintf("%d", phone))
	return digits >= constants.MinPhoneDigits && digits <= constants.MaxPhoneDigits
}
