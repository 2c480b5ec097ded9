package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yukikurage/kanban-board/internal/constants"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when no valid cost is configured.
const DefaultBcryptCost = 12

var ErrFailedToHashPassword = errors.New("failed to hash password")

var commonPasswords = map[string]struct{}{
	"password":  {},
	"123456":    {},
	"12345678":  {},
	"1234":      {},
	"qwerty":    {},
	"letmein":   {},
	"admin":     {},
	"welcome":   {},
	"monkey":    {},
	"password1": {},
	"1234567":   {},
}

// PasswordService hashes and verifies credentials.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService. Costs outside bcrypt's range fall back to the default.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordService{cost: cost}
}

// CheckStrength reports every strength rule the password breaks.
func (s *PasswordService) CheckStrength(password string) error {
	var reasons []string
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters long", constants.MinPasswordLength))
	}

	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain at least one number")
	}

	if len(reasons) > 0 {
		return &apierrors.WeakPasswordError{Reasons: reasons}
	}
	return nil
}

// Hash validates strength and returns a salted bcrypt hash.
func (s *PasswordService) Hash(password string) (string, error) {
	if err := s.CheckStrength(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToHashPassword, err)
	}
	return string(hashed), nil
}

// Verify compares in constant time; malformed hashes never match.
func (s *PasswordService) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsCommon reports whether the password is on the deny-list.
func (s *PasswordService) IsCommon(password string) bool {
	_, found := commonPasswords[strings.ToLower(password)]
	return found
}
