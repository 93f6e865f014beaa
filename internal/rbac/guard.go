package rbac

import "bookingclient/pkg/bookingapi"

type DecisionKind int

const (
	// DecisionPending: session not rehydrated yet. Show a placeholder and
	// take no routing action; deciding now would cause redirect flicker.
	DecisionPending DecisionKind = iota

	// DecisionRedirectLogin: nobody is logged in.
	DecisionRedirectLogin

	// DecisionRedirect: logged in, wrong role. Target is that role's home.
	DecisionRedirect

	// DecisionAllow: rehydrated and role membership holds.
	DecisionAllow
)

type Decision struct {
	Kind   DecisionKind
	Target Route
}

// Guard protects a view reachable only by the allowed roles.
type Guard struct {
	Allowed []Role
}

// Evaluate is pure and re-runnable: it is called on every state change and
// must reach the same decision for the same inputs. It never yields Allow
// unless the session is rehydrated and the user's role is in the allowed set.
func (g Guard) Evaluate(rehydrated bool, user *bookingapi.User) Decision {
	if !rehydrated {
		return Decision{Kind: DecisionPending}
	}
	if user == nil {
		return Decision{Kind: DecisionRedirectLogin, Target: RouteLogin}
	}

	role := ParseRole(user.Role)
	for _, allowed := range g.Allowed {
		if role == allowed {
			return Decision{Kind: DecisionAllow}
		}
	}
	return Decision{Kind: DecisionRedirect, Target: role.Home()}
}
