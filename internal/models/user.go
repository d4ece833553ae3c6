package models

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// User is an allow-list entry for admin authentication. There is no
// self-registration; users exist only via the seed operation.
type User struct {
	ID        uint64
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
