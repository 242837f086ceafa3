// Package xbl implements the Microsoft/Xbox device-code authentication
// chain used to bind a Minecraft (Java) profile to a local player. One
// bind attempt is one Session driven by one Flow.Run: device code
// issuance, token polling, proof-of-possession device token, SISU
// cross-service authorization, Minecraft service login, profile fetch.
// Every step consumes the previous step's token; nothing is retried
// except the polling loop itself.
package xbl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config identifies the application to the remote authorities.
type Config struct {
	// TitleID is the OAuth client id (Minecraft Java launcher title).
	TitleID string
	// RelyingParty scopes the SISU authorization token.
	RelyingParty string
	// Scope is the OAuth scope requested with the device code.
	Scope string
}

// Flow drives bind attempts against the remote authorities. A single
// Flow is safe for concurrent use; all per-attempt state lives on the
// Session.
type Flow struct {
	doer   Doer
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer

	// injected for tests; default to the real clock
	now   func() time.Time
	sleep func(time.Duration)
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the flow's notion of time. Tests use it to drive
// the polling loop without real sleeps.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(f *Flow) {
		f.now = now
		f.sleep = sleep
	}
}

// NewFlow constructs a Flow using the given transport.
func NewFlow(doer Doer, cfg Config, logger *slog.Logger, opts ...Option) *Flow {
	f := &Flow{
		doer:   doer,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("craftgate/internal/xbl"),
		now:    time.Now,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run executes the bind chain for the session and returns its ordered
// event stream: at most one DeviceCode event, then exactly one terminal
// event, then the channel closes. A cancelled session closes the
// channel without a terminal event. Run never blocks the caller; the
// channel is buffered for the full stream.
func (f *Flow) Run(ctx context.Context, session *Session) <-chan Event {
	events := make(chan Event, 2)
	go func() {
		defer close(events)
		f.run(ctx, session, events)
	}()
	return events
}

func (f *Flow) run(ctx context.Context, s *Session, events chan<- Event) {
	ctx, span := f.tracer.Start(ctx, "xbl.bind")
	defer span.End()

	grant, err := f.requestDeviceCode(ctx, s)
	if err != nil {
		f.fail(ctx, events, "device code issuance failed", err)
		return
	}
	events <- Event{
		State:           StateDeviceCode,
		Code:            grant.UserCode,
		VerificationURI: grant.VerificationURI,
	}

	accessToken, err := f.poll(ctx, s, grant)
	if err != nil {
		f.fail(ctx, events, "token polling failed", err)
		return
	}
	if accessToken == "" {
		// The poller gave up. Re-reading the active flag classifies the
		// outcome; a cancel landing exactly on the deadline may report
		// either, which matches the upstream behavior.
		if s.Active() {
			events <- Event{State: StateTimeout}
		}
		return
	}

	if !s.Active() {
		return
	}
	deviceToken, err := f.requestDeviceToken(ctx, s)
	if err != nil {
		f.fail(ctx, events, "device token acquisition failed", err)
		return
	}

	if !s.Active() {
		return
	}
	xstsToken, userHash, err := f.requestSisuAuthorization(ctx, s, accessToken, deviceToken)
	if err != nil {
		f.fail(ctx, events, "sisu authorization failed", err)
		return
	}

	if !s.Active() {
		return
	}
	gameToken, err := f.requestGameToken(ctx, xstsToken, userHash)
	if err != nil {
		f.fail(ctx, events, "minecraft token exchange failed", err)
		return
	}

	if !s.Active() {
		return
	}
	profile, err := f.fetchProfile(ctx, gameToken)
	if err != nil {
		f.fail(ctx, events, "profile fetch failed", err)
		return
	}

	events <- Event{
		State: StateSuccess,
		ID:    profile.ID,
		Name:  profile.Name,
	}
}

func (f *Flow) fail(ctx context.Context, events chan<- Event, msg string, err error) {
	f.logger.ErrorContext(ctx, msg, "error", err)
	events <- Event{State: StateInternalError}
}

// requestDeviceCode performs the unsigned device-code issuance call and
// retains the correlation cookie for the polling calls.
func (f *Flow) requestDeviceCode(ctx context.Context, s *Session) (deviceCodeGrant, error) {
	ctx, span := f.tracer.Start(ctx, "xbl.device_code")
	defer span.End()

	form := url.Values{
		"scope":         {f.cfg.Scope},
		"client_id":     {f.cfg.TitleID},
		"response_type": {"device_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointDeviceCode, strings.NewReader(form.Encode()))
	if err != nil {
		return deviceCodeGrant{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.doer.Do(req)
	if err != nil {
		return deviceCodeGrant{}, fmt.Errorf("device code request: %w", err)
	}
	defer resp.Body.Close()

	// login.live.com correlates the later polling calls to this device
	// code via cookie; keep only the key=value pair of the first one.
	if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
		kv, _, _ := strings.Cut(cookie, ";")
		s.cookies = append(s.cookies, kv)
	}

	var grant deviceCodeGrant
	if err := decodeResponse(resp, &grant); err != nil {
		return deviceCodeGrant{}, fmt.Errorf("device code response: %w", err)
	}
	if grant.DeviceCode == "" || grant.UserCode == "" {
		return deviceCodeGrant{}, fmt.Errorf("device code response missing codes")
	}
	return grant, nil
}

// requestDeviceToken performs the signed proof-of-possession call that
// registers this session's key as a device identity. The authorization
// token covered by the signature is empty for this step.
func (f *Flow) requestDeviceToken(ctx context.Context, s *Session) (string, error) {
	ctx, span := f.tracer.Start(ctx, "xbl.device_token")
	defer span.End()

	body, err := json.Marshal(deviceAuthRequest{
		Properties: deviceAuthProperties{
			AuthMethod:   "ProofOfPossession",
			ID:           "{" + uuid.NewString() + "}",
			DeviceType:   "Win32",
			SerialNumber: "{" + uuid.NewString() + "}",
			Version:      "0.0.0",
			ProofKey:     s.ProofKey(),
		},
		RelyingParty: deviceAuthRelyingParty,
		TokenType:    "JWT",
	})
	if err != nil {
		return "", err
	}

	signature, err := s.key.signHeader(http.MethodPost, endpointDeviceAuth, "", body, f.now())
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointDeviceAuth, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-store, must-revalidate, no-cache")
	req.Header.Set("Signature", signature)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := f.doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("device auth request: %w", err)
	}
	defer resp.Body.Close()

	var auth deviceAuthResponse
	if err := decodeResponse(resp, &auth); err != nil {
		return "", fmt.Errorf("device auth response: %w", err)
	}
	if auth.Token == "" {
		return "", fmt.Errorf("device auth response missing token")
	}
	return auth.Token, nil
}

// requestSisuAuthorization exchanges the access and device tokens for a
// cross-service (XSTS) authorization token scoped to the configured
// relying party. Signed like the device-token call.
func (f *Flow) requestSisuAuthorization(ctx context.Context, s *Session, accessToken, deviceToken string) (token, userHash string, err error) {
	ctx, span := f.tracer.Start(ctx, "xbl.sisu_authorize")
	defer span.End()

	body, err := json.Marshal(sisuRequest{
		AccessToken:       "t=" + accessToken,
		AppID:             f.cfg.TitleID,
		DeviceToken:       deviceToken,
		Sandbox:           "RETAIL",
		UseModernGamertag: false,
		SiteName:          sisuSiteName,
		RelyingParty:      f.cfg.RelyingParty,
		ProofKey:          s.ProofKey(),
	})
	if err != nil {
		return "", "", err
	}

	signature, err := s.key.signHeader(http.MethodPost, endpointSisuAuthorize, "", body, f.now())
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointSisuAuthorize, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Signature", signature)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.doer.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("sisu request: %w", err)
	}
	defer resp.Body.Close()

	var sisu sisuResponse
	if err := decodeResponse(resp, &sisu); err != nil {
		return "", "", fmt.Errorf("sisu response: %w", err)
	}
	if sisu.AuthorizationToken.Token == "" || len(sisu.AuthorizationToken.DisplayClaims.Xui) == 0 {
		return "", "", fmt.Errorf("sisu response missing authorization token")
	}
	return sisu.AuthorizationToken.Token, sisu.AuthorizationToken.DisplayClaims.Xui[0].UserHash, nil
}

// requestGameToken exchanges the XSTS token for a Minecraft services
// bearer token using the composed XBL3.0 identity credential.
func (f *Flow) requestGameToken(ctx context.Context, xstsToken, userHash string) (string, error) {
	ctx, span := f.tracer.Start(ctx, "xbl.login_with_xbox")
	defer span.End()

	body, err := json.Marshal(loginWithXboxRequest{
		IdentityToken: fmt.Sprintf("XBL3.0 x=%s;%s", userHash, xstsToken),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointLoginWithXbox, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MinecraftLauncher/2.2.10675")

	resp, err := f.doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("login_with_xbox request: %w", err)
	}
	defer resp.Body.Close()

	var login loginWithXboxResponse
	if err := decodeResponse(resp, &login); err != nil {
		return "", fmt.Errorf("login_with_xbox response: %w", err)
	}
	if login.AccessToken == "" {
		return "", fmt.Errorf("login_with_xbox response missing access token")
	}
	return login.AccessToken, nil
}

// fetchProfile retrieves the external profile with the game-service
// bearer token; its id and name are the only artifacts that outlive the
// session.
func (f *Flow) fetchProfile(ctx context.Context, gameToken string) (mcProfile, error) {
	ctx, span := f.tracer.Start(ctx, "xbl.profile")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointProfile, nil)
	if err != nil {
		return mcProfile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+gameToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.doer.Do(req)
	if err != nil {
		return mcProfile{}, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	var profile mcProfile
	if err := decodeResponse(resp, &profile); err != nil {
		return mcProfile{}, fmt.Errorf("profile response: %w", err)
	}
	if profile.ID == "" {
		return mcProfile{}, fmt.Errorf("profile response missing id")
	}
	return profile, nil
}

// decodeResponse decodes a 2xx JSON response, turning any other status
// into an error carrying a snippet of the body for the log.
func decodeResponse(resp *http.Response, v any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// decodeBody decodes the JSON body without a status check, for the one
// endpoint that reports non-terminal conditions with error statuses.
func decodeBody(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
