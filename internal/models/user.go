package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles. Managers may change catalog and pricing data; cashiers only
// ring up sales.
const (
	RoleManager = "manager"
	RoleCashier = "cashier"
)

// StaffUser is a store employee who can authenticate against the API
type StaffUser struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Username  string     `gorm:"uniqueIndex;not null" json:"username"`
	Password  string     `gorm:"not null" json:"-"`
	Name      string     `json:"name,omitempty"`
	Role      string     `gorm:"size:20;not null" json:"role"`
	IsActive  bool       `gorm:"not null" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (StaffUser) TableName() string { return "staff_users" }

// BeforeCreate assigns a UUID so the same schema works on sqlite
func (u *StaffUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCashier
	}
	return nil
}
