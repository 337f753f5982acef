package enums

// UserRole is the coarse role carried by identity tokens.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleCashier UserRole = "cashier"
)

var userRoles = []UserRole{UserRoleAdmin, UserRoleCashier}

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return member(userRoles, r) }

// IsPrivileged reports whether the role may see every cashier's orders.
func (r UserRole) IsPrivileged() bool { return r == UserRoleAdmin }

func ParseUserRole(value string) (UserRole, error) {
	return parse("user role", userRoles, value)
}
