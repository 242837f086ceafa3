package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftgate/internal/profile"
	"craftgate/internal/xbl"
	"craftgate/pkg/testutil"
)

// sseEvents parses the data lines of a server-sent event body.
func sseEvents(t *testing.T, rr *httptest.ResponseRecorder) []xbl.Event {
	t.Helper()
	var events []xbl.Event
	for _, line := range strings.Split(rr.Body.String(), "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev xbl.Event
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		events = append(events, ev)
	}
	return events
}

func TestBindStreamEndpoint(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))
	_, token := app.newPlayer(t, "steve", "123456")

	t.Run("streams device code then success and links the profile", func(t *testing.T) {
		req := authed(testutil.NewJSONRequest(t, http.MethodGet, "/profiles/bind/java-microsoft", nil), token)
		rr := testutil.DoRequest(app.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

		events := sseEvents(t, rr)
		require.Len(t, events, 2)
		assert.Equal(t, xbl.StateDeviceCode, events[0].State)
		assert.Equal(t, "ABC-DEF", events[0].Code)
		assert.Equal(t, "https://www.microsoft.com/link", events[0].VerificationURI)
		assert.Equal(t, xbl.StateSuccess, events[1].State)
		assert.Equal(t, "Notch", events[1].Name)

		listReq := authed(testutil.NewJSONRequest(t, http.MethodGet, "/profiles", nil), token)
		listRR := testutil.DoRequest(app.router, listReq)
		testutil.AssertStatus(t, listRR, http.StatusOK)

		got := testutil.UnmarshalResponse[struct {
			Profiles []profile.Profile `json:"profiles"`
		}](t, listRR)
		require.Len(t, got.Profiles, 1)
		assert.Equal(t, profile.ProviderJavaMicrosoft, got.Profiles[0].Provider)
		assert.Equal(t, "Notch", got.Profiles[0].DisplayName)
	})

	t.Run("rejects a malformed alive period", func(t *testing.T) {
		req := authed(testutil.NewJSONRequest(t, http.MethodGet,
			"/profiles/bind/java-microsoft?alive_period=soon", nil), token)
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestUnlinkEndpoint(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))
	_, token := app.newPlayer(t, "alex", "234567")

	bindReq := authed(testutil.NewJSONRequest(t, http.MethodGet, "/profiles/bind/java-microsoft", nil), token)
	testutil.AssertStatus(t, testutil.DoRequest(app.router, bindReq), http.StatusOK)

	t.Run("removes the link", func(t *testing.T) {
		req := authed(testutil.NewJSONRequest(t, http.MethodDelete, "/profiles/java_microsoft", nil), token)
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("second unlink is not found", func(t *testing.T) {
		req := authed(testutil.NewJSONRequest(t, http.MethodDelete, "/profiles/java_microsoft", nil), token)
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("unknown provider is a bad request", func(t *testing.T) {
		req := authed(testutil.NewJSONRequest(t, http.MethodDelete, "/profiles/steam", nil), token)
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
