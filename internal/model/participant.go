package model

import (
	"time"
)

// Role represents the capability a participant holds.
type Role string

const (
	RoleGuest Role = "guest"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// Participant is an authenticated identity capable of sending and receiving
// messages. Rows are owned by the identity subsystem; this service only
// reads them.
type Participant struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName string    `gorm:"size:128;not null" json:"display_name"`
	Role        Role      `gorm:"size:16;index;not null" json:"role"`
	CustomerID  *uint64   `gorm:"index" json:"customer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether the participant holds administrative capability.
func (p *Participant) IsAdmin() bool { return p.Role == RoleAdmin }

// IsStaff reports whether the participant holds the staff role.
func (p *Participant) IsStaff() bool { return p.Role == RoleStaff }
