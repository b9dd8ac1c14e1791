package config

import "time"

type SessionConfig interface {
	GetMaxSessionAge() time.Duration
	GetActivityThrottle() time.Duration
	GetLoginURL() string
	GetPageIdleTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetMaxSessionAge is how long after login a seller session expires
func (Session) GetMaxSessionAge() time.Duration {
	return GetDuration("SESSION_MAX_AGE", 24*time.Hour)
}

// GetActivityThrottle limits last-activity refreshes; zero refreshes on every signal
func (Session) GetActivityThrottle() time.Duration {
	return GetDuration("ACTIVITY_THROTTLE", 0)
}

func (Session) GetLoginURL() string {
	return GetEnv("LOGIN_URL", "/seller/login")
}

// GetPageIdleTimeout is how long an open dashboard keeps its activity tracker
// without a page load or interaction
func (Session) GetPageIdleTimeout() time.Duration {
	return GetDuration("PAGE_IDLE_TIMEOUT", 30*time.Minute)
}
