package model

// RoleManager is the reviewer role. Any other role is treated as staff.
const (
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Identity is the caller as asserted by the upstream session.
type Identity struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Clinic string `json:"clinic"`
}

// IsManager reports whether the caller may review carts.
func (i Identity) IsManager() bool {
	return i.Role == RoleManager
}
