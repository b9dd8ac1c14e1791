package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-seller-session/auth"
	"github.com/jrsteele09/go-seller-session/internal/config"
	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/jrsteele09/go-seller-session/kvstore/repofake"
	"github.com/jrsteele09/go-seller-session/server"
	"github.com/jrsteele09/go-seller-session/sessions"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testFixture runs the server over an in-memory backend with a controllable clock
type testFixture struct {
	repo  *kvstore.InMemoryRepo
	srv   *server.Server
	http  *httptest.Server
	clock atomic.Int64
}

func setupTestFixture(t *testing.T, options ...server.Option) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("LOGIN_URL", "")
	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("ACTIVITY_THROTTLE", "")
	t.Setenv("PAGE_IDLE_TIMEOUT", "")

	f := &testFixture{repo: kvstore.NewInMemoryRepo()}
	f.clock.Store(testStart.UnixNano())

	opts := append([]server.Option{server.WithNowTime(func() time.Time {
		return time.Unix(0, f.clock.Load()).UTC()
	})}, options...)
	srv, err := server.New(config.New(), f.repo, opts...)
	require.NoError(t, err)
	f.srv = srv
	f.http = httptest.NewServer(srv)
	t.Cleanup(func() {
		f.http.Close()
		srv.Close()
	})
	return f
}

func (f *testFixture) advance(d time.Duration) {
	f.clock.Add(int64(d))
}

// newBrowser returns a client with its own cookie jar that does not follow redirects
func (f *testFixture) newBrowser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *testFixture) get(t *testing.T, browser *http.Client, path string) (*http.Response, string) {
	t.Helper()

	resp, err := browser.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (f *testFixture) post(t *testing.T, browser *http.Client, path string, form url.Values) *http.Response {
	t.Helper()

	resp, err := browser.PostForm(f.http.URL+path, form)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (f *testFixture) login(t *testing.T, browser *http.Client, form url.Values) {
	t.Helper()

	resp := f.post(t, browser, server.RouteSellerLogin, form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, server.RouteSellerDashboard, resp.Header.Get("Location"))
}

func (f *testFixture) status(t *testing.T, browser *http.Client) server.SessionStatus {
	t.Helper()

	resp, body := f.get(t, browser, server.RouteSellerSession)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status server.SessionStatus
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	return status
}

func sellerForm(remember bool) url.Values {
	form := url.Values{
		"email":   {"S@Shop.com"},
		"name":    {"Sara"},
		"storeId": {"store-42"},
	}
	if remember {
		form.Set("remember", "on")
	}
	return form
}

func TestNew_RequiresRepo(t *testing.T) {
	_, err := server.New(config.New(), nil)
	require.Error(t, err)
}

func TestNew_RejectsSweepInterval(t *testing.T) {
	_, err := server.New(config.New(), kvstore.NewInMemoryRepo(), server.WithSweepInterval(0))
	require.Error(t, err)
}

func TestDashboard_WithoutSessionRedirectsToLogin(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)

	resp, _ := f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, auth.DefaultLoginURL, resp.Header.Get("Location"))

	var issued bool
	for _, c := range resp.Cookies() {
		if c.Name == "seller_client" {
			issued = true
			require.True(t, c.HttpOnly)
		}
	}
	require.True(t, issued)
}

func TestLogin_ThenDashboardAllowed(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(false))

	f.advance(7 * time.Minute)
	resp, body := f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Welcome, Sara")
	require.Contains(t, body, "s@shop.com")
	require.Contains(t, body, "store-42")
	require.Contains(t, body, "7 minutes")
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	status := f.status(t, browser)
	require.True(t, status.LoggedIn)
	require.False(t, status.Expired)
	require.Equal(t, int64(7), status.DurationMinutes)
	require.Equal(t, sessions.RoleSeller, status.Role)
	require.Equal(t, "s@shop.com", status.Email)
}

func TestLogin_InvalidEmailRejected(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)

	resp := f.post(t, browser, server.RouteSellerLogin, url.Values{"email": {"not-an-email"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, browser, server.RouteSellerLogin, url.Values{"name": {"Sara"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.False(t, f.status(t, browser).LoggedIn)
}

func TestLogin_RememberedEmail(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)

	_, body := f.get(t, browser, server.RouteSellerLogin)
	require.Contains(t, body, `name="email" value=""`)

	f.login(t, browser, sellerForm(true))
	resp := f.post(t, browser, server.RouteSellerLogout, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/seller/login", resp.Header.Get("Location"))

	_, body = f.get(t, browser, server.RouteSellerLogin)
	require.Contains(t, body, `value="s@shop.com"`)
	require.Contains(t, body, "checked")

	f.login(t, browser, sellerForm(false))
	_, body = f.get(t, browser, server.RouteSellerLogin)
	require.NotContains(t, body, `value="s@shop.com"`)
}

func TestLogout_EndsSession(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(false))

	f.post(t, browser, server.RouteSellerLogout, nil)
	f.post(t, browser, server.RouteSellerLogout, nil)

	status := f.status(t, browser)
	require.False(t, status.LoggedIn)
	require.Empty(t, status.Role)
	require.Equal(t, sessions.DefaultDisplayName, status.Name)

	resp, _ := f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestDashboard_ExpiredSession(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(true))

	f.advance(24*time.Hour + time.Second)
	require.True(t, f.status(t, browser).Expired)

	resp, _ := f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, auth.DefaultLoginURL, location.Path)
	require.Equal(t, auth.ExpiredNotice, location.Query().Get("error"))

	status := f.status(t, browser)
	require.False(t, status.LoggedIn)
	require.False(t, status.Expired)

	_, body := f.get(t, browser, location.RequestURI())
	require.Contains(t, body, "Your session has expired")
	require.Contains(t, body, `value="s@shop.com"`)
}

func TestActivity_RefreshesOpenDashboard(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(false))

	resp, _ := f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.advance(5 * time.Minute)
	resp = f.post(t, browser, server.RouteSellerActivity+"?kind=mousemove", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Eventually(t, func() bool {
		return f.status(t, browser).LastActivity == "2026-03-14T09:35:00.000Z"
	}, 2*time.Second, 10*time.Millisecond)

	// Activity does not extend the session
	f.advance(24 * time.Hour)
	require.True(t, f.status(t, browser).Expired)
}

func TestActivity_WithoutOpenPageIsIgnored(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(false))

	resp := f.post(t, browser, server.RouteSellerActivity+"?kind=keypress", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Never(t, func() bool {
		return f.status(t, browser).LastActivity != ""
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestActivity_UnknownKind(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)

	resp := f.post(t, browser, server.RouteSellerActivity+"?kind=scroll", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClients_AreIsolated(t *testing.T) {
	f := setupTestFixture(t)
	alice := f.newBrowser(t)
	bob := f.newBrowser(t)

	f.login(t, alice, sellerForm(true))

	require.True(t, f.status(t, alice).LoggedIn)
	require.False(t, f.status(t, bob).LoggedIn)

	_, body := f.get(t, bob, server.RouteSellerLogin)
	require.NotContains(t, body, "s@shop.com")

	// One client's keys live under its own namespace in the shared backend
	require.Equal(t, 3, f.repo.Len())
}

func TestClient_InvalidCookieIsReplaced(t *testing.T) {
	f := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.http.URL+server.RouteSellerSession, nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "seller_client", Value: "../../etc"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var replaced string
	for _, c := range resp.Cookies() {
		if c.Name == "seller_client" {
			replaced = c.Value
		}
	}
	require.NotEmpty(t, replaced)
	require.False(t, strings.Contains(replaced, "/"))
}

func TestRoot_RedirectsToDashboard(t *testing.T) {
	f := setupTestFixture(t)
	resp, _ := f.get(t, f.newBrowser(t), "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, server.RouteSellerDashboard, resp.Header.Get("Location"))
}

func TestPages_ExpiredSessionsAreReleased(t *testing.T) {
	f := setupTestFixture(t, server.WithSweepInterval(10*time.Millisecond))

	for range 20 {
		browser := f.newBrowser(t)
		f.login(t, browser, sellerForm(false))
		resp, _ := f.get(t, browser, server.RouteSellerDashboard)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Equal(t, 20, f.srv.OpenPages())

	f.advance(48 * time.Hour)
	require.Eventually(t, func() bool {
		return f.srv.OpenPages() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPages_IdlePagesAreReleased(t *testing.T) {
	f := setupTestFixture(t, server.WithSweepInterval(10*time.Millisecond))
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(false))

	resp, _ := f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, f.srv.OpenPages())

	// Interaction keeps the page open
	f.advance(20 * time.Minute)
	f.post(t, browser, server.RouteSellerActivity+"?kind=keypress", nil)
	f.advance(20 * time.Minute)
	require.Never(t, func() bool {
		return f.srv.OpenPages() == 0
	}, 100*time.Millisecond, 10*time.Millisecond)

	f.advance(11 * time.Minute)
	require.Eventually(t, func() bool {
		return f.srv.OpenPages() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The session itself is untouched and a reload opens the page again
	require.True(t, f.status(t, browser).LoggedIn)
	resp, _ = f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, f.srv.OpenPages())
}

func TestPages_LogoutReleasesPage(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.newBrowser(t)
	f.login(t, browser, sellerForm(false))
	f.get(t, browser, server.RouteSellerDashboard)
	require.Equal(t, 1, f.srv.OpenPages())

	f.post(t, browser, server.RouteSellerLogout, nil)
	require.Zero(t, f.srv.OpenPages())
}

func TestLogin_RememberFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	previous := zlog.Logger
	zlog.Logger = zerolog.New(&logs)
	t.Cleanup(func() { zlog.Logger = previous })

	t.Setenv("ENV", "TEST")
	repo := repofake.NewFakeRepo()
	srv, err := server.New(config.New(), repo)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	clientID := uuid.New().String()
	repo.FailSet(clientID+":"+sessions.DefaultKeys.Remember, apperrors.ErrQuotaExceeded)

	req, err := http.NewRequest(http.MethodPost, ts.URL+server.RouteSellerLogin, strings.NewReader(sellerForm(true).Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "seller_client", Value: clientID})

	browser := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := browser.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// The session still starts; only the remembered email is lost
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, server.RouteSellerDashboard, resp.Header.Get("Location"))
	require.Contains(t, logs.String(), "failed to remember identity")
}
