package domain

// MemberRole enumerates workspace operator roles.
type MemberRole string

const (
	RoleAgent      MemberRole = "agent"
	RoleSupervisor MemberRole = "supervisor"
	RoleAdmin      MemberRole = "admin"
)

// CanTakeover reports whether the role may start or release a takeover.
func (r MemberRole) CanTakeover() bool {
	return r == RoleSupervisor || r == RoleAdmin
}
