package model

import (
	"time"

	"github.com/google/uuid"
)

// Role gates what a user may do at the register.
type Role string

const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// CanApproveRefunds reports whether the role may approve pending refunds.
func (r Role) CanApproveRefunds() bool { return r == RoleManager || r == RoleAdmin }

// User stores staff accounts with role-based access.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(20);not null"`
	// TerminalID restricts a cashier to one register; nil = all registers.
	TerminalID *uuid.UUID `gorm:"type:uuid"`
	IsActive   bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
