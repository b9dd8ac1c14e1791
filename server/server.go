package server

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-seller-session/activity"
	"github.com/jrsteele09/go-seller-session/auth"
	"github.com/jrsteele09/go-seller-session/internal/config"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/jrsteele09/go-seller-session/sessions"
	zlog "github.com/rs/zerolog/log"
)

// DefaultPageSweepInterval is how often open pages are checked for eviction
const DefaultPageSweepInterval = time.Minute

// clientPage is the open dashboard of one client and its activity tracker
type clientPage struct {
	bus      *activity.Bus
	tracker  *activity.Tracker
	store    *sessions.Store
	lastSeen time.Time // Guarded by Server.pagesLock
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	repo      kvstore.Repo // Shared backend, namespaced per client
	validator *auth.Validator
	nowTime   func() time.Time

	loginTmpl     *template.Template
	dashboardTmpl *template.Template

	ctx           context.Context
	cancel        context.CancelFunc
	pages         map[string]*clientPage // clientID -> open dashboard
	pagesLock     sync.Mutex
	sweepInterval time.Duration
	sweepDone     chan struct{}
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithSweepInterval sets how often abandoned or expired pages are released
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Server) {
		s.sweepInterval = interval
	}
}

// WithNowTime sets the clock used by client session stores (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(config config.Config, repo kvstore.Repo, options ...Option) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("[Server New] storage repo is required")
	}

	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse login template: %w", err)
	}
	dashboardTmpl, err := ParseTemplate("dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse dashboard template: %w", err)
	}

	s := &Server{
		env:           config.GetEnv(),
		mux:           http.NewServeMux(),
		config:        config,
		repo:          repo,
		validator:     auth.NewValidator(),
		nowTime:       time.Now,
		loginTmpl:     loginTmpl,
		dashboardTmpl: dashboardTmpl,
		pages:         make(map[string]*clientPage),
		sweepInterval: DefaultPageSweepInterval,
		sweepDone:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.sweepInterval <= 0 {
		return nil, fmt.Errorf("[Server New] sweep interval must be positive")
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.sweepLoop()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops the page sweep and every client's activity tracker
func (s *Server) Close() {
	s.cancel()
	<-s.sweepDone

	s.pagesLock.Lock()
	pages := s.pages
	s.pages = make(map[string]*clientPage)
	s.pagesLock.Unlock()

	for _, page := range pages {
		page.tracker.Stop()
	}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// sessionStore builds the session store over clientID's storage namespace
func (s *Server) sessionStore(clientID string) (*sessions.Store, error) {
	return sessions.New(
		kvstore.NewPrefixed(s.repo, clientID),
		sessions.WithMaxAge(s.config.GetMaxSessionAge()),
		sessions.WithNowTime(s.nowTime),
		sessions.WithLogger(zlog.Logger.With().Str("client", clientID).Logger()),
	)
}

// openPage registers a fresh activity tracker for clientID, replacing the
// tracker of any previously loaded page.
func (s *Server) openPage(clientID string, store *sessions.Store) {
	page := &clientPage{
		bus:      activity.NewBus(),
		tracker:  activity.NewTracker(store, activity.WithThrottle(s.config.GetActivityThrottle())),
		store:    store,
		lastSeen: s.nowTime(),
	}
	if err := page.tracker.Start(s.ctx, page.bus); err != nil {
		zlog.Err(err).Str("client", clientID).Msg("Failed to start activity tracker")
		return
	}

	s.pagesLock.Lock()
	previous := s.pages[clientID]
	s.pages[clientID] = page
	s.pagesLock.Unlock()

	if previous != nil {
		previous.tracker.Stop()
	}
}

// closePage stops clientID's activity tracker, if any
func (s *Server) closePage(clientID string) {
	s.pagesLock.Lock()
	page := s.pages[clientID]
	delete(s.pages, clientID)
	s.pagesLock.Unlock()

	if page != nil {
		page.tracker.Stop()
	}
}

// touchPage returns clientID's open page and marks it as seen
func (s *Server) touchPage(clientID string) (*clientPage, bool) {
	s.pagesLock.Lock()
	defer s.pagesLock.Unlock()
	page, ok := s.pages[clientID]
	if ok {
		page.lastSeen = s.nowTime()
	}
	return page, ok
}

// OpenPages returns the number of dashboards with a running activity tracker
func (s *Server) OpenPages() int {
	s.pagesLock.Lock()
	defer s.pagesLock.Unlock()
	return len(s.pages)
}

func (s *Server) sweepLoop() {
	defer close(s.sweepDone)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.sweepPages(); evicted > 0 {
				zlog.Debug().Int("evicted", evicted).Int("open", s.OpenPages()).Msg("Released idle pages")
			}
		}
	}
}

// sweepPages releases pages that have been idle past the page idle timeout
// or whose session has ended or expired. Storage is read outside the lock.
func (s *Server) sweepPages() int {
	now := s.nowTime()
	idleTimeout := s.config.GetPageIdleTimeout()

	s.pagesLock.Lock()
	candidates := make(map[string]*clientPage, len(s.pages))
	idle := make(map[string]bool)
	for clientID, page := range s.pages {
		candidates[clientID] = page
		idle[clientID] = now.Sub(page.lastSeen) > idleTimeout
	}
	s.pagesLock.Unlock()

	var stale []*clientPage
	for clientID, page := range candidates {
		if !idle[clientID] && page.store.IsLoggedIn() && !page.store.IsExpired() {
			continue
		}
		s.pagesLock.Lock()
		if s.pages[clientID] == page {
			delete(s.pages, clientID)
			stale = append(stale, page)
		}
		s.pagesLock.Unlock()
	}

	for _, page := range stale {
		page.tracker.Stop()
	}
	return len(stale)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
