package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_Allows(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", PermQuestionView, true},
		{"student", PermQuestionGrade, true},
		{"student", PermQuestionEdit, false},
		{"student", PermQuestionExport, false},
		{"teacher", PermQuestionEdit, true},
		{"teacher", PermQuestionExport, true},
		{"teacher", "metrics:view", false},
		{"admin", "anything:at_all", true},
		{"", PermQuestionView, false},
		{"ghost", PermQuestionView, false},
	}
	for _, tc := range cases {
		if got := c.Allows(tc.role, tc.perm); got != tc.want {
			t.Errorf("Allows(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestChecker_CustomTable(t *testing.T) {
	c := NewChecker(map[string][]string{"grader": {"question:grade", "report:*"}})
	if !c.Allows("grader", "question:grade") || !c.Allows("grader", "report:xlsx") {
		t.Fatal("grader should hold its grants")
	}
	if c.Allows("grader", "question:gradebook") || c.Allows("student", PermQuestionView) {
		t.Fatal("exact grants must not match by prefix, and default roles are gone")
	}
}

func TestPrincipalFrom(t *testing.T) {
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatal("empty context has no principal")
	}
	if _, ok := PrincipalFrom(WithPrincipal(context.Background(), Principal{Subject: "x"})); ok {
		t.Fatal("principal without role counts as anonymous")
	}
	p, ok := PrincipalFrom(WithPrincipal(context.Background(), Principal{Subject: "sam", Role: "student"}))
	if !ok || p.Subject != "sam" || p.Role != "student" {
		t.Fatalf("got %+v %v", p, ok)
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermQuestionEdit)(ok)

	for role, want := range map[string]int{"": 403, "student": 403, "teacher": 204, "admin": 204} {
		r := httptest.NewRequest(http.MethodPost, "/questions", nil)
		if role != "" {
			r = r.WithContext(WithPrincipal(r.Context(), Principal{Subject: "u", Role: role}))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != want {
			t.Errorf("role %q: status %d, want %d", role, w.Code, want)
		}
	}
}
