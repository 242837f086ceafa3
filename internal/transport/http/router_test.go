package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftgate/internal/audit"
	"craftgate/internal/auth"
	"craftgate/internal/directory"
	"craftgate/internal/jwttoken"
	"craftgate/internal/platform/metrics"
	"craftgate/internal/profile"
	"craftgate/internal/xbl"
	"craftgate/pkg/testutil"
)

var testMetrics = metrics.New()

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// happyAuthorities plays the whole remote bind chain, approving the
// device code on the first poll.
func happyAuthorities(req *http.Request) (*http.Response, error) {
	switch req.URL.Host {
	case "login.live.com":
		if req.URL.Path == "/oauth20_connect.srf" {
			return jsonResponse(http.StatusOK,
				`{"device_code":"D1","user_code":"ABC-DEF","verification_uri":"https://www.microsoft.com/link","interval":1,"expires_in":900}`), nil
		}
		return jsonResponse(http.StatusOK, `{"access_token":"AT1"}`), nil
	case "device.auth.xboxlive.com":
		return jsonResponse(http.StatusOK, `{"Token":"DT1"}`), nil
	case "sisu.xboxlive.com":
		return jsonResponse(http.StatusOK,
			`{"AuthorizationToken":{"Token":"XSTS1","DisplayClaims":{"xui":[{"uhs":"UH1"}]}}}`), nil
	case "api.minecraftservices.com":
		if req.URL.Path == "/authentication/login_with_xbox" {
			return jsonResponse(http.StatusOK, `{"access_token":"MC1"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`), nil
	}
	return jsonResponse(http.StatusNotFound, `{}`), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	time.Sleep(time.Millisecond)
}

type testApp struct {
	router   http.Handler
	authSvc  *auth.Service
	servers  *directory.MemoryStore
	profiles *profile.MemoryStore
	tokens   *jwttoken.Service
}

func newTestApp(t *testing.T, doer xbl.Doer) *testApp {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	auditlog := audit.NewPublisher(logger)
	tokens := jwttoken.NewService("test-signing-key", "craftgate-test")

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	flow := xbl.NewFlow(doer, xbl.Config{
		TitleID:      "00000000402b5328",
		RelyingParty: "rp://api.minecraftservices.com/",
		Scope:        "service::user.auth.xboxlive.com::MBI_SSL",
	}, logger, xbl.WithClock(clock.Now, clock.Sleep))
	profileStore := profile.NewMemoryStore()
	profSvc := profile.NewService(profileStore, flow, auditlog, testMetrics, logger)

	serverStore := directory.NewMemoryStore()
	dirSvc := directory.NewService(serverStore, profSvc, logger)
	authSvc := auth.NewService(auth.NewMemoryStore(), tokens, nil, dirSvc, auditlog, testMetrics, logger)

	router := NewRouter(logger, NewTokenValidator(tokens),
		[]Registrar{NewAuthHandler(authSvc)},
		[]Registrar{NewProfileHandler(profSvc, 0), NewDirectoryHandler(dirSvc)},
	)
	return &testApp{
		router:   router,
		authSvc:  authSvc,
		servers:  serverStore,
		profiles: profileStore,
		tokens:   tokens,
	}
}

// newPlayer registers a player directly and returns their id and a
// valid bearer token.
func (a *testApp) newPlayer(t *testing.T, username, chatID string) (uuid.UUID, string) {
	t.Helper()
	player, err := a.authSvc.Register(t.Context(), username, chatID, "hunter2hunter2")
	require.NoError(t, err)
	token, err := a.tokens.GenerateAccessToken(player.ID, player.IsSiteAdmin, nil)
	require.NoError(t, err)
	return player.ID, token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))

	rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))

	rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "craftgate_")
}

func TestAuthenticatedRoutesRejectBadTokens(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodGet, "/profiles", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := authed(testutil.NewJSONRequest(t, http.MethodGet, "/profiles", nil), "not-a-jwt")
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwttoken.NewService("different-key", "craftgate-test")
		token, err := other.GenerateAccessToken(uuid.New(), false, nil)
		require.NoError(t, err)
		req := authed(testutil.NewJSONRequest(t, http.MethodGet, "/profiles", nil), token)
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rr := testutil.DoRequest(app.router, req)
	assert.Equal(t, "req-42", rr.Header().Get("X-Request-Id"))

	rr = testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}
