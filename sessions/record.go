package sessions

import (
	"encoding/json"
	"time"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/pkg/errors"
)

// TimestampLayout is the ISO 8601 layout used for loginTime and lastActivity
// (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	fieldEmail        = "email"
	fieldName         = "name"
	fieldStoreID      = "storeId"
	fieldLoginTime    = "loginTime"
	fieldIsLoggedIn   = "isLoggedIn"
	fieldLastActivity = "lastActivity"
)

// Record is the persisted seller session. Fields the store does not know about
// are kept in Extra and written back unchanged.
type Record struct {
	Email        string                     // Seller identity, required
	Name         string                     // Display name
	StoreID      string                     // Store the seller manages
	LoginTime    string                     // ISO 8601, set once when the session is created
	IsLoggedIn   bool                       // Must be true for an active session
	LastActivity string                     // ISO 8601, refreshed on interaction
	Extra        map[string]json.RawMessage // Caller supplied fields, preserved verbatim
}

// LoginAt parses LoginTime
func (r Record) LoginAt() (time.Time, bool) {
	return parseTimestamp(r.LoginTime)
}

// validate checks the fields every stored session must carry: an email and a
// readable login time.
func (r Record) validate() error {
	if r.Email == "" {
		return errors.Wrap(apperrors.ErrMalformedRecord, "missing email")
	}
	if _, ok := r.LoginAt(); !ok {
		return errors.Wrapf(apperrors.ErrMalformedRecord, "unreadable login time %q", r.LoginTime)
	}
	return nil
}

// LastActivityAt parses LastActivity
func (r Record) LastActivityAt() (time.Time, bool) {
	return parseTimestamp(r.LastActivity)
}

// MarshalJSON writes the record as a flat JSON object with the extra fields
// alongside the known ones.
func (r Record) MarshalJSON() ([]byte, error) {
	fields, err := r.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON accepts only a JSON object whose known fields have the
// expected types.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrapf(apperrors.ErrMalformedRecord, "%v", err)
	}
	if fields == nil {
		return errors.Wrap(apperrors.ErrMalformedRecord, "null record")
	}

	var rec Record
	targets := map[string]any{
		fieldEmail:        &rec.Email,
		fieldName:         &rec.Name,
		fieldStoreID:      &rec.StoreID,
		fieldLoginTime:    &rec.LoginTime,
		fieldIsLoggedIn:   &rec.IsLoggedIn,
		fieldLastActivity: &rec.LastActivity,
	}
	for name, target := range targets {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		delete(fields, name)
		if string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return errors.Wrapf(apperrors.ErrMalformedRecord, "field %q: %v", name, err)
		}
	}
	if len(fields) > 0 {
		rec.Extra = fields
	}

	*r = rec
	return nil
}

func (r Record) fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+6)
	for name, raw := range r.Extra {
		fields[name] = raw
	}

	known := map[string]any{
		fieldEmail:      r.Email,
		fieldName:       r.Name,
		fieldStoreID:    r.StoreID,
		fieldLoginTime:  r.LoginTime,
		fieldIsLoggedIn: r.IsLoggedIn,
	}
	if r.LastActivity != "" {
		known[fieldLastActivity] = r.LastActivity
	}
	for name, value := range known {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", name)
		}
		fields[name] = raw
	}
	return fields, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
