package models

import (
	"strings"
	"time"
)

type Position string

const (
	PositionUser    Position = "User"
	PositionAdmin   Position = "Admin"
	PositionManager Position = "Manager"
	PositionViewer  Position = "Viewer"
)

var Positions = []Position{PositionUser, PositionAdmin, PositionManager, PositionViewer}

func (p Position) Valid() bool {
	for _, pos := range Positions {
		if p == pos {
			return true
		}
	}
	return false
}

// NormalizePosition capitalizes free-form input such as "admin" or "MANAGER".
func NormalizePosition(value string) Position {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return Position(strings.ToUpper(value[:1]) + strings.ToLower(value[1:]))
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	PhoneNumber  int64     `gorm:"uniqueIndex;not null" json:"phone_number"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Position     Position  `gorm:"type:varchar(20);not null;default:'User'" json:"position"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `gorm:"not null" json:"last_modified"`
}
