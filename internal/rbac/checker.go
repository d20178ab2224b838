package rbac

import (
	"context"
	"strings"
)

// grant is the compiled permission set of one role. Patterns ending in "*"
// match by prefix; a bare "*" matches everything.
type grant struct {
	all      bool
	exact    map[string]bool
	prefixes []string
}

func (g grant) allows(perm string) bool {
	if g.all || g.exact[perm] {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

// Checker answers permission questions for roles.
type Checker struct {
	roles map[string]grant
}

// NewChecker compiles a role to permission-pattern table. A nil table uses
// RolePermissions.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{roles: make(map[string]grant, len(rp))}
	for role, patterns := range rp {
		g := grant{exact: map[string]bool{}}
		for _, p := range patterns {
			switch {
			case p == "*":
				g.all = true
			case strings.HasSuffix(p, "*"):
				g.prefixes = append(g.prefixes, strings.TrimSuffix(p, "*"))
			default:
				g.exact[p] = true
			}
		}
		c.roles[role] = g
	}
	return c
}

// Allows reports whether role holds perm. Unknown roles hold nothing.
func (c *Checker) Allows(role, perm string) bool {
	g, ok := c.roles[role]
	return ok && g.allows(perm)
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Role    string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by the auth middleware; ok is false
// for anonymous requests.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.Role != ""
}
