package auth

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/mind-engage/mindengage-mcsaon/internal/auth/middleware"
)

const (
	GuestCookie = "mcsaon_guest_id"
	GuestRole   = "student"
)

// GuestLoginHandler issues a student token to anonymous learners so they can
// view and answer questions. The guest id is kept in a cookie and reused.
func GuestLoginHandler(a *authmw.AuthService, secureCookie bool) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ""
		if c, err := r.Cookie(GuestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			userID = c.Value
		}
		if userID == "" {
			userID = "guest|" + uuid.NewString()
		}
		tok, err := a.IssueJWT(userID, GuestRole)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     GuestCookie,
			Value:    userID,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: guestName(userID)})
	}
}

func guestName(id string) string {
	sfx := strings.ReplaceAll(strings.TrimPrefix(id, "guest|"), "-", "")
	if len(sfx) > 6 {
		sfx = sfx[len(sfx)-6:]
	}
	if sfx == "" {
		sfx = strconv.FormatInt(time.Now().UnixNano()%1e6, 10)
	}
	return "guest-" + sfx
}
