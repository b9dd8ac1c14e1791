package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-seller-session/auth"
	"github.com/rs/zerolog/log"
)

// DashboardPageData contains data for rendering the seller dashboard
type DashboardPageData struct {
	Name            string
	Email           string
	StoreID         string
	DurationMinutes int64
	ActivityURL     string
	LogoutURL       string
}

// DashboardHandler renders the protected seller dashboard (GET /seller/dashboard).
// Serving the page registers the client's activity tracker.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := s.clientID(w, r)
		store, err := s.sessionStore(clientID)
		if err != nil {
			log.Err(err).Msg("Dashboard: session store")
			http.Error(w, "Session storage unavailable", http.StatusInternalServerError)
			return
		}

		var redirectURL, notice string
		guard := auth.NewGuard(store,
			func(target string) { redirectURL = target },
			func(message string) { notice = message },
			auth.WithLoginURL(s.config.GetLoginURL()),
			auth.WithLogger(log.Logger.With().Str("client", clientID).Logger()),
		)
		if guard.RequireLogin() == auth.Denied {
			s.closePage(clientID)
			http.Redirect(w, r, withNotice(redirectURL, notice), http.StatusSeeOther)
			return
		}

		data := DashboardPageData{
			Name:            store.DisplayName(),
			Email:           store.Email(),
			StoreID:         store.StoreID(),
			DurationMinutes: store.SessionDurationMinutes(),
			ActivityURL:     RouteSellerActivity,
			LogoutURL:       RouteSellerLogout,
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := s.dashboardTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render dashboard template")
			http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
			return
		}

		s.openPage(clientID, store)
	}
}

// withNotice carries a notice to the redirect target as its error parameter
func withNotice(target, notice string) string {
	if notice == "" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("error", notice)
	u.RawQuery = q.Encode()
	return u.String()
}
