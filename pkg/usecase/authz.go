package usecase

import (
	"context"

	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/utils/errutil"
)

// AuthorizationGate decides whether an actor may run privileged actions such
// as resolving an escalation. Without a membership lookup the gate is
// disabled and lets everyone through.
type AuthorizationGate struct {
	lookup interfaces.MembershipLookup
}

func NewAuthorizationGate(lookup interfaces.MembershipLookup) *AuthorizationGate {
	return &AuthorizationGate{lookup: lookup}
}

// Enabled reports whether membership is checked
func (g *AuthorizationGate) Enabled() bool {
	return g.lookup != nil
}

// IsAuthorized asks the membership lookup exactly once. Lookup failures
// count as not authorized.
func (g *AuthorizationGate) IsAuthorized(ctx context.Context, actorID string) bool {
	if g.lookup == nil {
		return true
	}

	ok, err := g.lookup.IsMember(ctx, actorID)
	if err != nil {
		errutil.Handle(ctx, err, "failed to look up membership")
		return false
	}
	return ok
}
