package domain

import "time"

// Role identifies what operations a caller is authorized to perform.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// User represents an authenticated account. Role is the source of truth for
// manager-only operations; passenger/driver operations authorize against the
// actor id stored on the target trip instead.
type User struct {
	ID        string
	Name      string
	Phone     string
	Role      Role
	CreatedAt time.Time
}
