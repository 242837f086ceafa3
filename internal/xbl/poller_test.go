package xbl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the flow's time without real sleeping. Sleep simply
// advances the clock, so a three-second budget runs instantly.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

// doerFunc adapts a function to the Doer interface.
type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testConfig() Config {
	return Config{
		TitleID:      "00000000402b5328",
		RelyingParty: "rp://api.minecraftservices.com/",
		Scope:        "service::user.auth.xboxlive.com::MBI_SSL",
	}
}

func newTestFlow(t *testing.T, doer Doer) (*Flow, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	flow := NewFlow(doer, testConfig(), slog.New(slog.DiscardHandler))
	flow.now = clock.Now
	flow.sleep = clock.Sleep
	return flow, clock
}

func newPollSession(t *testing.T, alive time.Duration) *Session {
	t.Helper()
	s, err := NewSession(alive)
	require.NoError(t, err)
	return s
}

func TestPollTimesOutWhilePending(t *testing.T) {
	attempts := 0
	flow, _ := newTestFlow(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(http.StatusBadRequest, `{"error":"authorization_pending"}`), nil
	}))
	session := newPollSession(t, 3*time.Second)

	token, err := flow.poll(context.Background(), session, deviceCodeGrant{DeviceCode: "D1", Interval: 1})

	require.NoError(t, err)
	assert.Empty(t, token)
	assert.True(t, session.Active(), "timeout must not look like cancellation")
	assert.Equal(t, 2, attempts, "attempts at t=1s and t=2s; the t=3s wake hits the deadline")
}

func TestPollStopsOnCancelWithoutAnotherCall(t *testing.T) {
	attempts := 0
	flow, clock := newTestFlow(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(http.StatusBadRequest, `{"error":"authorization_pending"}`), nil
	}))
	session := newPollSession(t, 60*time.Second)

	// Cancel lands while the poller is asleep; the next wake must exit
	// without issuing a request.
	flow.sleep = func(d time.Duration) {
		clock.Sleep(d)
		session.Cancel()
	}

	token, err := flow.poll(context.Background(), session, deviceCodeGrant{DeviceCode: "D1", Interval: 1})

	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, session.Active())
	assert.Zero(t, attempts)
}

func TestPollReturnsTokenImmediately(t *testing.T) {
	attempts := 0
	flow, _ := newTestFlow(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return jsonResponse(http.StatusBadRequest, `{"error":"authorization_pending"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"access_token":"AT1"}`), nil
	}))
	session := newPollSession(t, 60*time.Second)

	token, err := flow.poll(context.Background(), session, deviceCodeGrant{DeviceCode: "D1", Interval: 1})

	require.NoError(t, err)
	assert.Equal(t, "AT1", token)
	assert.Equal(t, 2, attempts)
}

func TestPollFatalOnOtherErrors(t *testing.T) {
	flow, _ := newTestFlow(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error":"expired_token"}`), nil
	}))
	session := newPollSession(t, 60*time.Second)

	_, err := flow.poll(context.Background(), session, deviceCodeGrant{DeviceCode: "D1", Interval: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired_token")
}

func TestPollEchoesCorrelationCookie(t *testing.T) {
	var gotCookie string
	flow, _ := newTestFlow(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		gotCookie = req.Header.Get("Cookie")
		return jsonResponse(http.StatusOK, `{"access_token":"AT1"}`), nil
	}))
	session := newPollSession(t, 60*time.Second)
	session.cookies = []string{"MSA=abc"}

	_, err := flow.poll(context.Background(), session, deviceCodeGrant{DeviceCode: "D1", Interval: 1})

	require.NoError(t, err)
	assert.Equal(t, "MSA=abc", gotCookie)
}

func TestPollClampsBadInterval(t *testing.T) {
	slept := time.Duration(0)
	flow, clock := newTestFlow(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"access_token":"AT1"}`), nil
	}))
	flow.sleep = func(d time.Duration) {
		slept = d
		clock.Sleep(d)
	}
	session := newPollSession(t, 60*time.Second)

	_, err := flow.poll(context.Background(), session, deviceCodeGrant{DeviceCode: "D1", Interval: 0})

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, slept, "zero interval must not busy-poll")
}
