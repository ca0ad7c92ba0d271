package models

type Role int

// UserRole constants
const (
	RoleUser  Role = 1
	RoleAdmin Role = 2
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// String returns the wire name of the role as accepted in registration requests.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// MarshalJSON serializes the role under its wire name rather than the stored integer.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// ParseRole maps a wire role name to a Role. Empty input defaults to RoleUser.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "", "user":
		return RoleUser, true
	case "admin":
		return RoleAdmin, true
	default:
		return 0, false
	}
}

// User represents a user in the system
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"` // 1=User, 2=Admin, default=1
}
