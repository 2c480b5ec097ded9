package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/kanban-board/internal/database"
	apierrors "github.com/yukikurage/kanban-board/internal/errors"
	"github.com/yukikurage/kanban-board/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	guard *database.Guard
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB, timeout time.Duration) UserRepository {
	return &GormUserRepository{guard: database.NewGuard(db, timeout)}
}

// Create creates a new user unless the phone number is already registered
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.guard.Transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("phone_number = ?", user.PhoneNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apierrors.ErrDuplicatePhone
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierrors.ErrDuplicatePhone
			}
			return err
		}
		return nil
	})
}

// FindByPhone finds a user by phone number
func (r *GormUserRepository) FindByPhone(ctx context.Context, phone int64) (*models.User, error) {
	var user models.User
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		return db.Where("phone_number = ?", phone).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPhones loads all existing users among phones
func (r *GormUserRepository) FindByPhones(ctx context.Context, phones []int64) ([]models.User, error) {
	users := []models.User{}
	if len(phones) == 0 {
		return users, nil
	}
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		return db.Where("phone_number IN ?", phones).Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetActive updates the activation flag and last modification time
func (r *GormUserRepository) SetActive(ctx context.Context, phone int64, active bool) (bool, error) {
	found := false
	err := r.guard.Transaction(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("phone_number = ?", phone).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true

		return tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"is_active":     active,
				"last_modified": time.Now(),
			}).Error
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// List returns all users, optionally only active ones
func (r *GormUserRepository) List(ctx context.Context, activeOnly bool) ([]models.User, error) {
	users := []models.User{}
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		query := db.Order("id ASC")
		if activeOnly {
			query = query.Scopes(database.ActiveOnly)
		}
		return query.Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Search finds users whose name contains term, case-insensitively
func (r *GormUserRepository) Search(ctx context.Context, term string) ([]models.User, error) {
	users := []models.User{}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	err := r.guard.Run(ctx, func(db *gorm.DB) error {
		return db.Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).Order("id ASC").Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
