// Package roles resolves a verified subject's authorization role from the
// primary store, with REST and degraded fallbacks for constrained runtimes.
package roles

// Role is one of the ordered authorization levels.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleUser:       0,
	RoleAdmin:      1,
	RoleSuperadmin: 2,
}

// AtLeast reports whether r meets the minimum required role.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Parse maps a stored role string onto a Role. Absent or unknown values
// default to user, per the primary store contract.
func Parse(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperadmin:
		return RoleSuperadmin
	default:
		return RoleUser
	}
}
