package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the login identity the excluded admin layer authenticates. The
// engine only needs it as the target of initiator/approver references.
type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserName  string    `gorm:"size:150;uniqueIndex;not null" json:"user_name"`
	Email     string    `gorm:"size:254" json:"email"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
