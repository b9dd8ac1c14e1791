package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-seller-session/auth"
	"github.com/jrsteele09/go-seller-session/sessions"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Email    string // Remembered email, prefilled
	Remember bool
	Error    string
}

// LoginPageHandler displays the login page (GET /seller/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := s.sessionStore(s.clientID(w, r))
		if err != nil {
			log.Err(err).Msg("Login page: session store")
			http.Error(w, "Session storage unavailable", http.StatusInternalServerError)
			return
		}

		remembered := store.RememberedEmail()
		data := LoginPageData{
			Email:    remembered,
			Remember: remembered != "",
			Error:    r.URL.Query().Get("error"),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := s.loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

// LoginSubmissionHandler records the seller's asserted identity (POST /seller/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := s.validator.Normalize(auth.LoginForm{
			Email:    r.FormValue("email"),
			Name:     r.FormValue("name"),
			StoreID:  r.FormValue("storeId"),
			Remember: r.FormValue("remember") != "",
		})
		if err := s.validator.ValidateLogin(form); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		clientID := s.clientID(w, r)
		store, err := s.sessionStore(clientID)
		if err != nil {
			log.Err(err).Msg("Login: session store")
			http.Error(w, "Session storage unavailable", http.StatusInternalServerError)
			return
		}

		if !store.SaveSession(sessions.Record{Email: form.Email, Name: form.Name, StoreID: form.StoreID}) {
			redirectToLogin(w, r, "Unable to start session, please try again")
			return
		}

		if form.Remember {
			if !store.RememberIdentity(form.Email) {
				log.Warn().Str("client", clientID).Msg("Login: failed to remember identity")
			}
		} else if !store.ForgetIdentity() {
			log.Warn().Str("client", clientID).Msg("Login: failed to forget identity")
		}

		log.Info().Str("client", clientID).Str("email", form.Email).Msg("Seller logged in")
		http.Redirect(w, r, RouteSellerDashboard, http.StatusSeeOther)
	}
}

// LogoutHandler ends the seller session (POST /seller/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := s.clientID(w, r)
		s.closePage(clientID)

		store, err := s.sessionStore(clientID)
		if err != nil {
			log.Err(err).Msg("Logout: session store")
			http.Error(w, "Session storage unavailable", http.StatusInternalServerError)
			return
		}
		if !store.Logout() {
			log.Warn().Str("client", clientID).Msg("Logout: session could not be fully removed")
		}

		http.Redirect(w, r, s.config.GetLoginURL(), http.StatusSeeOther)
	}
}

// redirectToLogin redirects to the login page with an error message
func redirectToLogin(w http.ResponseWriter, r *http.Request, errorMsg string) {
	http.Redirect(w, r, RouteSellerLogin+"?error="+url.QueryEscape(errorMsg), http.StatusSeeOther)
}
