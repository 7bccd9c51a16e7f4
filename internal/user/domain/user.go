package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
)

// ParseRole normalizes stored role values; blank values default to CUSTOMER.
func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(v))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStaff:
		return RoleStaff, true
	case RoleCustomer, "":
		return RoleCustomer, true
	}
	return "", false
}

type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	PhoneNumber      string    `json:"phone_number"`
	Role             Role      `json:"role"`
	DefaultAddressID int64     `json:"default_address_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
