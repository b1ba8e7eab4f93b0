// internal/models/member.go
package models

import (
	"strings"
	"time"
)

// MemberStatus is the lifecycle state owned by the external member store.
type MemberStatus string

const (
	StatusActive    MemberStatus = "active"
	StatusExpired   MemberStatus = "expired"
	StatusSuspended MemberStatus = "suspended"
	StatusInactive  MemberStatus = "inactive"
)

// Member is a read-only projection of the member store row. The reminder
// pipeline never mutates members.
type Member struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Status         MemberStatus `json:"status"`
	ExpiryDate     *time.Time   `json:"expiryDate"`
	JoinDate       *time.Time   `json:"joinDate"`
	MembershipName string       `json:"membershipName"`
	Price          float64      `json:"price"`
}

// MembershipPlan is a read-only reference used for template variables.
type MembershipPlan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"` // days
}

// ValidEmail applies the basic address-format check used across the pipeline:
// non-empty local part, single @, dotted domain.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return false
	}
	if !strings.Contains(parts[1], ".") {
		return false
	}
	return true
}

// DaysUntilExpiry returns the ceiling of the remaining time in days, floored
// at zero. A member with no expiry date reports zero.
func (m *Member) DaysUntilExpiry(now time.Time) int {
	if m.ExpiryDate == nil {
		return 0
	}
	remaining := m.ExpiryDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
