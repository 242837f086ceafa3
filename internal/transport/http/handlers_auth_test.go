package httptransport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftgate/pkg/testutil"
)

func TestRegisterEndpoint(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))
	valid := registerRequest{Username: "steve", ChatID: "123456", Password: "hunter2hunter2"}

	t.Run("creates a player", func(t *testing.T) {
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", valid))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		got := testutil.UnmarshalResponse[playerResponse](t, rr)
		assert.Equal(t, "steve", got.Username)
		assert.Equal(t, "123456", got.ChatID)
		assert.False(t, got.IsSiteAdmin)
		assert.NotContains(t, rr.Body.String(), "password", "no credential material in responses")
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		dup := valid
		dup.ChatID = "654321"
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", dup))
		testutil.AssertStatus(t, rr, http.StatusConflict)
		testutil.AssertErrorCode(t, rr, "conflict")
	})

	t.Run("invalid body is a bad request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", nil)
		rr := testutil.DoRequest(app.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*registerRequest)
		}{
			{"short username", func(r *registerRequest) { r.Username = "ab" }},
			{"non-alphanumeric username", func(r *registerRequest) { r.Username = "steve!" }},
			{"non-numeric chat id", func(r *registerRequest) { r.ChatID = "12a456" }},
			{"short chat id", func(r *registerRequest) { r.ChatID = "1234" }},
			{"short password", func(r *registerRequest) { r.Password = "short" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := valid
				req.Username = "fresh"
				req.ChatID = "999999"
				tt.mutate(&req)
				rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", req))
				testutil.AssertStatus(t, rr, http.StatusBadRequest)
				testutil.AssertErrorCode(t, rr, "bad_request")
			})
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t, doerFunc(happyAuthorities))
	register := registerRequest{Username: "alex", ChatID: "234567", Password: "hunter2hunter2"}
	rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", register))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	t.Run("issues a usable token", func(t *testing.T) {
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			loginRequest{Login: "alex", Password: "hunter2hunter2"}))
		testutil.AssertStatus(t, rr, http.StatusOK)

		got := testutil.UnmarshalResponse[struct {
			Token  string         `json:"token"`
			Player playerResponse `json:"player"`
		}](t, rr)
		assert.Equal(t, "alex", got.Player.Username)

		claims, err := app.tokens.ValidateToken(got.Token)
		require.NoError(t, err)
		assert.Equal(t, got.Player.ID.String(), claims.PlayerID)
	})

	t.Run("accepts the chat id as login", func(t *testing.T) {
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			loginRequest{Login: "234567", Password: "hunter2hunter2"}))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			loginRequest{Login: "alex", Password: "wrong-password"}))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(t, rr, "unauthorized")
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		rr := testutil.DoRequest(app.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			loginRequest{Login: "alex"}))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
