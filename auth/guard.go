package auth

import (
	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLoginURL is the entry point anonymous or expired sellers are sent to
const DefaultLoginURL = "/seller/login"

// ExpiredNotice is shown to the seller when their session has expired
const ExpiredNotice = "Your session has expired. Please log in again."

// Decision is the outcome of a guard check
type Decision int

const (
	// Denied means the client was sent to the login page
	Denied Decision = iota
	// Allowed means the protected view may render
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Redirect navigates the client to url
type Redirect func(url string)

// Notice shows a blocking message to the client
type Notice func(message string)

// SessionChecker is the part of the session store the guard depends on
type SessionChecker interface {
	IsLoggedIn() bool
	IsExpired() bool
	Logout() bool
}

// Guard gates protected views on an active, unexpired seller session.
type Guard struct {
	sessions SessionChecker
	redirect Redirect
	notice   Notice
	loginURL string
	logger   zerolog.Logger
}

// GuardOption defines a function type to modify the Guard instance.
type GuardOption func(*Guard)

// WithLoginURL sets where denied clients are redirected
func WithLoginURL(url string) GuardOption {
	return func(g *Guard) {
		g.loginURL = url
	}
}

// WithLogger sets the logger used to report expired sessions
func WithLogger(logger zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard creates a Guard. redirect and notice are the client's navigation
// and notification mechanisms; a nil notice is ignored.
func NewGuard(sessions SessionChecker, redirect Redirect, notice Notice, options ...GuardOption) *Guard {
	g := &Guard{
		sessions: sessions,
		redirect: redirect,
		notice:   notice,
		loginURL: DefaultLoginURL,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// RequireLogin checks the session once. Without a session the client is
// redirected to the login page; an expired session is logged out, the
// client notified and then redirected. Call it at the top of every
// protected view.
func (g *Guard) RequireLogin() Decision {
	if !g.sessions.IsLoggedIn() {
		g.deny()
		return Denied
	}

	if g.sessions.IsExpired() {
		g.logger.Info().Err(apperrors.ErrSessionExpired).Msg("RequireLogin: logging out expired session")
		if !g.sessions.Logout() {
			g.logger.Warn().Msg("RequireLogin: logout of expired session failed")
		}
		if g.notice != nil {
			g.notice(ExpiredNotice)
		}
		g.deny()
		return Denied
	}

	return Allowed
}

func (g *Guard) deny() {
	if g.redirect != nil {
		g.redirect(g.loginURL)
	}
}
