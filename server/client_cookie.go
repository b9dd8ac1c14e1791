package server

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	// clientCookieName identifies the browser whose storage namespace a request uses
	clientCookieName = "seller_client"
	clientCookieAge  = 365 * 24 * 60 * 60
)

// clientID returns the requesting browser's identifier, issuing a new one when
// the cookie is missing or not a UUID.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(clientCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   clientCookieAge,
	})
	return id
}
