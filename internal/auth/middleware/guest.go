package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	guestCookie = "cbt_guest_id"
	guestPrefix = "guest|"
	guestTTL    = 30 * 24 * time.Hour
)

// GuestLoginHandler issues a student token for anonymous practice. The guest id
// lives in a cookie so the same browser keeps its result history.
func GuestLoginHandler(a *AuthService, secureCookie bool) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
		Role        string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(guestCookie); err == nil && validGuestID(c.Value) {
			id = c.Value
		} else {
			id = guestPrefix + uuid.NewString()
		}
		tok, err := a.IssueJWT(id, "student")
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		sameSite := http.SameSiteLaxMode
		if secureCookie {
			sameSite = http.SameSiteNoneMode
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: sameSite,
			Expires:  time.Now().Add(guestTTL),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: "guest-" + id[len(id)-6:], Role: "student"})
	}
}

func validGuestID(v string) bool {
	if !strings.HasPrefix(v, guestPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(v, guestPrefix))
	return err == nil
}
