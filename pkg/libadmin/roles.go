package libadmin

import (
	"fmt"
	"strings"
)

// Role is the account role reported by the backend.
type Role string

// Known roles.
const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// Capability is an action gated by role.
type Capability string

// Capabilities checked by the client before it issues a request.
const (
	CapManageCatalog Capability = "manage-catalog"
	CapManageLoans   Capability = "manage-loans"
	CapViewReports   Capability = "view-reports"
	CapDeleteRecords Capability = "delete-records"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapManageCatalog, CapManageLoans, CapViewReports, CapDeleteRecords},
	RoleStaff: {CapManageCatalog, CapManageLoans, CapViewReports},
}

// ParseRole normalises a role string such as "admin" or "ROLE_ADMIN".
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}

	return r, nil
}

// Capabilities returns the capability set of the role. Unknown roles have none.
func (r Role) Capabilities() []Capability {
	caps := roleCapabilities[r]
	out := make([]Capability, len(caps))
	copy(out, caps)

	return out
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}

	return false
}
