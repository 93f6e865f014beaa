// Package rbac gates role-restricted views. One role type, one exhaustive
// home-route mapping, consumed everywhere instead of re-deriving per call
// site.
package rbac

type Role string

const (
	RoleUser        Role = "user"
	RoleFacilitator Role = "facilitator"

	// RoleUnset is an account that finished OAuth signup but has not picked
	// a role yet. Valid transient state; such sessions route to role
	// selection, not to a dashboard.
	RoleUnset Role = ""
)

// ParseRole maps the server's role string onto the variant. Unknown values
// behave like unset: the account gets sent to role selection rather than
// granted anything.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleFacilitator:
		return Role(s)
	default:
		return RoleUnset
	}
}

type Route string

const (
	RouteLogin           Route = "/login"
	RouteUserHome        Route = "/user"
	RouteFacilitatorHome Route = "/facilitator"
	RouteRoleSelection   Route = "/choose-role"
)

// Home is the one place role-to-route dispatch lives. A role's home always
// satisfies that role's own guard, which is what makes redirects idempotent.
func (r Role) Home() Route {
	switch r {
	case RoleUser:
		return RouteUserHome
	case RoleFacilitator:
		return RouteFacilitatorHome
	default:
		return RouteRoleSelection
	}
}
