package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Require enforces perm using the default policy.
func Require(perm string) func(http.Handler) http.Handler {
	return defaultChecker.Require(perm)
}

// Require rejects requests whose principal lacks perm with 403.
func (c *Checker) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.Can(r, perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Can reports whether the request's principal holds perm.
func (c *Checker) Can(r *http.Request, perm string) bool {
	p, ok := PrincipalFrom(r.Context())
	return ok && c.Allows(p.Role, perm)
}
