// Package actor models the already-authenticated caller of a mutating
// operation. Authentication and token issuance happen upstream; the core only
// checks ownership and role-appropriateness of the specific action.
package actor

// Role is the caller's role as asserted by the upstream gateway.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	// RoleSystem is used by schedulers and internal jobs.
	RoleSystem Role = "system"
)

// Actor identifies who performs an operation.
type Actor struct {
	ID   uint
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// Owns reports whether the actor is the given customer, or holds a role that
// may act on any customer's behalf.
func (a Actor) Owns(customerID uint) bool {
	if a.Role == RoleAdmin || a.Role == RoleSystem {
		return true
	}
	return a.Role == RoleCustomer && a.ID == customerID
}

// String returns a short audit label like "admin:42".
func (a Actor) String() string {
	switch a.Role {
	case RoleAdmin:
		return "admin"
	case RoleSystem:
		return "system"
	default:
		return "customer"
	}
}
