package sessions

import (
	"encoding/json"
	"maps"
	"math"
	"time"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// RoleSeller is the role marker written with every saved session
	RoleSeller = "seller"
	// DefaultDisplayName is used when a session carries no name, or there is no session
	DefaultDisplayName = "seller"
	// DefaultMaxAge is how long a session stays valid after login
	DefaultMaxAge = 24 * time.Hour
)

// Keys names the three storage entries owned by the Store
type Keys struct {
	Session  string // JSON encoded Record
	Remember string // Remembered email
	Role     string // Role marker
}

// DefaultKeys are the storage key names used by the seller pages
var DefaultKeys = Keys{
	Session:  "sellerData",
	Remember: "rememberSeller",
	Role:     "userRole",
}

// Store manages the seller session held in a client's key-value storage.
//
// Every operation resolves to a boolean or a default value: storage failures
// and malformed records are logged and never returned to the caller. The
// Store performs read-modify-write without transactions; concurrent writers
// on the same storage keys are last-write-wins.
type Store struct {
	repo        kvstore.Repo
	keys        Keys
	maxAge      time.Duration
	defaultName string
	nowTime     func() time.Time
	logger      zerolog.Logger
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used to report swallowed failures
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithKeys overrides the storage key names
func WithKeys(keys Keys) Option {
	return func(s *Store) {
		s.keys = keys
	}
}

// WithMaxAge overrides the session expiry threshold
func WithMaxAge(maxAge time.Duration) Option {
	return func(s *Store) {
		s.maxAge = maxAge
	}
}

// WithDefaultName overrides the placeholder display name
func WithDefaultName(name string) Option {
	return func(s *Store) {
		s.defaultName = name
	}
}

// New creates a Store over repo. Optional configuration can be provided via
// options (e.g., WithNowTime for testing).
func New(repo kvstore.Repo, options ...Option) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[sessions.New] repo is required")
	}

	s := &Store{
		repo:        repo,
		keys:        DefaultKeys,
		maxAge:      DefaultMaxAge,
		defaultName: DefaultDisplayName,
		nowTime:     time.Now,
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.keys.Session == "" || s.keys.Remember == "" || s.keys.Role == "" {
		return nil, errors.New("[sessions.New] all storage keys must be named")
	}
	if s.maxAge <= 0 {
		return nil, errors.New("[sessions.New] max age must be positive")
	}
	return s, nil
}

// SaveSession creates the session from data. Name and LoginTime default to
// the placeholder name and the current time when empty; IsLoggedIn is always
// set. The role marker is written alongside the record.
func (s *Store) SaveSession(data Record) bool {
	if data.Email == "" {
		s.logger.Warn().Msg("Save session: email is required")
		return false
	}

	rec := Record{
		Name:       s.defaultName,
		LoginTime:  formatTimestamp(s.nowTime()),
		IsLoggedIn: true,
	}
	rec.Email = data.Email
	if data.Name != "" {
		rec.Name = data.Name
	}
	rec.StoreID = data.StoreID
	if data.LoginTime != "" {
		rec.LoginTime = data.LoginTime
	}
	rec.LastActivity = data.LastActivity
	if len(data.Extra) > 0 {
		rec.Extra = maps.Clone(data.Extra)
	}

	return s.write(rec)
}

// GetSession returns the stored record. A missing, unreadable or malformed
// record is reported as no session, as is one without an email or a readable
// login time.
func (s *Store) GetSession() (*Record, bool) {
	raw, err := s.repo.GetItem(s.keys.Session)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Err(err).Str("key", s.keys.Session).Msg("Get session: storage read failed")
		}
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Warn().Err(err).Str("key", s.keys.Session).Msg("Get session: ignoring malformed record")
		return nil, false
	}
	if err := rec.validate(); err != nil {
		s.logger.Warn().Err(err).Str("key", s.keys.Session).Msg("Get session: ignoring partial record")
		return nil, false
	}
	return &rec, true
}

// IsLoggedIn reports whether a session exists with IsLoggedIn set
func (s *Store) IsLoggedIn() bool {
	rec, ok := s.GetSession()
	return ok && rec.IsLoggedIn
}

// RememberIdentity stores email for prefilling future logins
func (s *Store) RememberIdentity(email string) bool {
	if err := s.repo.SetItem(s.keys.Remember, email); err != nil {
		s.logger.Err(err).Msg("Remember identity: storage write failed")
		return false
	}
	return true
}

// RememberedIdentity returns the remembered email, or "" when there is none
func (s *Store) RememberedIdentity() string {
	email, err := s.repo.GetItem(s.keys.Remember)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Err(err).Msg("Remembered identity: storage read failed")
		}
		return ""
	}
	return email
}

// RememberedEmail is an alias of RememberedIdentity
func (s *Store) RememberedEmail() string {
	return s.RememberedIdentity()
}

// ForgetIdentity removes the remembered email
func (s *Store) ForgetIdentity() bool {
	if err := s.repo.RemoveItem(s.keys.Remember); err != nil {
		s.logger.Err(err).Msg("Forget identity: storage remove failed")
		return false
	}
	return true
}

// Role returns the role marker, or "" when no session has been saved
func (s *Store) Role() string {
	role, err := s.repo.GetItem(s.keys.Role)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Err(err).Msg("Role: storage read failed")
		}
		return ""
	}
	return role
}

// Logout removes the session record and the role marker. Logging out without
// a session succeeds.
func (s *Store) Logout() bool {
	ok := true
	for _, key := range []string{s.keys.Session, s.keys.Role} {
		if err := s.repo.RemoveItem(key); err != nil {
			s.logger.Err(err).Str("key", key).Msg("Logout: storage remove failed")
			ok = false
		}
	}
	if ok {
		s.logger.Debug().Msg("Seller logged out")
	}
	return ok
}

// DisplayName returns the session's name or the placeholder name
func (s *Store) DisplayName() string {
	rec, ok := s.GetSession()
	if !ok || rec.Name == "" {
		return s.defaultName
	}
	return rec.Name
}

// Email returns the session's email or ""
func (s *Store) Email() string {
	rec, ok := s.GetSession()
	if !ok {
		return ""
	}
	return rec.Email
}

// StoreID returns the session's store identifier or ""
func (s *Store) StoreID() string {
	rec, ok := s.GetSession()
	if !ok {
		return ""
	}
	return rec.StoreID
}

// UpdateSession shallow-merges updates over the stored record, keyed by JSON
// field name. It fails when there is no session. loginTime is immutable and
// is ignored in updates.
func (s *Store) UpdateSession(updates map[string]any) bool {
	current, ok := s.GetSession()
	if !ok {
		s.logger.Debug().Err(apperrors.ErrSessionNotFound).Msg("Update session: no session to update")
		return false
	}

	fields, err := current.fields()
	if err != nil {
		s.logger.Err(err).Msg("Update session: encoding current record")
		return false
	}
	for name, value := range updates {
		if name == fieldLoginTime {
			s.logger.Debug().Msg("Update session: loginTime is immutable, ignoring")
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			s.logger.Err(err).Str("field", name).Msg("Update session: encoding update")
			return false
		}
		fields[name] = raw
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		s.logger.Err(err).Msg("Update session: encoding merged record")
		return false
	}
	var rec Record
	if err := json.Unmarshal(merged, &rec); err != nil {
		s.logger.Warn().Err(err).Msg("Update session: rejected update")
		return false
	}
	if rec.Email == "" {
		s.logger.Warn().Msg("Update session: email cannot be cleared")
		return false
	}

	return s.write(rec)
}

// SessionDurationMinutes returns the whole minutes elapsed since login, or 0
// when there is no session or its login time is unreadable.
func (s *Store) SessionDurationMinutes() int64 {
	elapsed, ok := s.elapsed()
	if !ok {
		return 0
	}
	return int64(math.Floor(elapsed.Minutes()))
}

// IsExpired reports whether more than the max age has passed since login
func (s *Store) IsExpired() bool {
	elapsed, ok := s.elapsed()
	return ok && elapsed > s.maxAge
}

// TouchActivity stamps lastActivity with the current time. Without a session
// it does nothing and returns false.
func (s *Store) TouchActivity() bool {
	rec, ok := s.GetSession()
	if !ok {
		s.logger.Debug().Err(apperrors.ErrSessionNotFound).Msg("Touch activity: no session")
		return false
	}
	rec.LastActivity = formatTimestamp(s.nowTime())
	return s.write(*rec)
}

func (s *Store) elapsed() (time.Duration, bool) {
	rec, ok := s.GetSession()
	if !ok {
		return 0, false
	}
	loginAt, ok := rec.LoginAt()
	if !ok {
		return 0, false
	}
	return s.nowTime().Sub(loginAt), true
}

// write persists rec and the role marker. When the role marker cannot be
// written the previous record is restored so no half-saved session remains.
func (s *Store) write(rec Record) bool {
	rec.IsLoggedIn = true
	if err := rec.validate(); err != nil {
		s.logger.Warn().Err(err).Msg("Save session: rejected record")
		return false
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		s.logger.Err(err).Msg("Save session: encoding record")
		return false
	}

	previous, prevErr := s.repo.GetItem(s.keys.Session)
	hadPrevious := prevErr == nil

	if err := s.repo.SetItem(s.keys.Session, string(encoded)); err != nil {
		s.logger.Err(err).Str("key", s.keys.Session).Msg("Save session: storage write failed")
		return false
	}

	if err := s.repo.SetItem(s.keys.Role, RoleSeller); err != nil {
		s.logger.Err(err).Str("key", s.keys.Role).Msg("Save session: role marker write failed, rolling back")
		var rollbackErr error
		if hadPrevious {
			rollbackErr = s.repo.SetItem(s.keys.Session, previous)
		} else {
			rollbackErr = s.repo.RemoveItem(s.keys.Session)
		}
		if rollbackErr != nil {
			s.logger.Err(rollbackErr).Msg("Save session: rollback failed")
		}
		return false
	}

	return true
}
