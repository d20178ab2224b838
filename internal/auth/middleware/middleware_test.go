package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-mcsaon/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, err := a.IssueJWT("alice", "teacher")
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(tok)
	if err != nil || c.Sub != "alice" || c.Role != "teacher" {
		t.Fatalf("claims %+v %v", c, err)
	}
	if _, err := NewAuthService("other", time.Hour).Parse(tok); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
	expired := NewAuthService("secret", time.Nanosecond)
	old, _ := expired.IssueJWT("bob", "student")
	time.Sleep(2 * time.Millisecond)
	if _, err := expired.Parse(old); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthService("secret", time.Hour)
	h := LoginHandler(a, Account{Username: "admin", PassHash: string(hash), Role: "admin"})

	cases := []struct {
		body string
		want int
	}{
		{`{"username":"admin","password":"s3cret"}`, http.StatusOK},
		{`{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{`{"username":"root","password":"s3cret"}`, http.StatusUnauthorized},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
		if w.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.body, w.Code, tc.want)
		}
		if tc.want == http.StatusOK && !strings.Contains(w.Body.String(), "access_token") {
			t.Errorf("no token in %s", w.Body.String())
		}
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := rbac.PrincipalFrom(r.Context())
		gotSub, gotRole = p.Subject, p.Role
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: %d", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}

	tok, _ := a.IssueJWT("carol", "student")
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK || gotSub != "carol" || gotRole != "student" {
		t.Fatalf("status %d sub %q role %q", w.Code, gotSub, gotRole)
	}
}
