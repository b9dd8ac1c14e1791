package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-seller-session/activity"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

// SessionStatus is the session summary returned to page scripts
type SessionStatus struct {
	LoggedIn        bool   `json:"loggedIn"`
	Expired         bool   `json:"expired"`
	DurationMinutes int64  `json:"durationMinutes"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	StoreID         string `json:"storeId"`
	Role            string `json:"role"`
	LastActivity    string `json:"lastActivity,omitempty"`
}

// ActivityHandler accepts interaction beacons from an open dashboard
// (POST /seller/activity?kind=mousemove|keypress). Beacons are fire-and-forget:
// any known kind is acknowledged with 204 whether or not a page is open.
func (s *Server) ActivityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := activity.ParseKind(r.URL.Query().Get("kind"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if page, ok := s.touchPage(s.clientID(w, r)); ok {
			page.bus.Emit(kind)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionStatusHandler reports the client's session (GET /seller/session)
func (s *Server) SessionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := s.sessionStore(s.clientID(w, r))
		if err != nil {
			log.Err(err).Msg("Session status: session store")
			http.Error(w, "Session storage unavailable", http.StatusInternalServerError)
			return
		}

		status := SessionStatus{
			LoggedIn:        store.IsLoggedIn(),
			Expired:         store.IsExpired(),
			DurationMinutes: store.SessionDurationMinutes(),
			Name:            store.DisplayName(),
			Email:           store.Email(),
			StoreID:         store.StoreID(),
			Role:            store.Role(),
		}
		if rec, ok := store.GetSession(); ok {
			status.LastActivity = rec.LastActivity
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Err(err).Msg("Session status: encoding response")
		}
	}
}
