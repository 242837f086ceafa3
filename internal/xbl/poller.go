package xbl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// poll exchanges the device code for an access token, sleeping the
// server-specified interval before every attempt. The interval is a
// politeness contract with login.live.com; shortening it risks
// throttling. Returns the empty string, with no error, when the polling
// budget elapses or the session is cancelled; the caller classifies
// the outcome by re-reading the session flag. Any remote error other
// than authorization_pending is fatal.
func (f *Flow) poll(ctx context.Context, s *Session, grant deviceCodeGrant) (string, error) {
	ctx, span := f.tracer.Start(ctx, "xbl.poll_token")
	defer span.End()

	interval := time.Duration(grant.Interval) * time.Second
	if interval < time.Second {
		// Never busy-poll, even against a misbehaving authority.
		interval = 5 * time.Second
	}

	deadline := f.now().Add(s.alivePeriod)
	for {
		f.sleep(interval)
		if !f.now().Before(deadline) || !s.Active() {
			return "", nil
		}

		token, pending, err := f.exchangeDeviceCode(ctx, s, grant.DeviceCode)
		if err != nil {
			return "", err
		}
		if !pending {
			return token, nil
		}
	}
}

// exchangeDeviceCode issues one token-endpoint attempt, echoing the
// correlation cookie captured at device-code issuance. The endpoint
// reports authorization_pending with a non-2xx status, so the body is
// decoded regardless of the status code.
func (f *Flow) exchangeDeviceCode(ctx context.Context, s *Session, deviceCode string) (token string, pending bool, err error) {
	form := url.Values{
		"client_id":   {f.cfg.TitleID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpointToken+"?client_id="+url.QueryEscape(f.cfg.TitleID), strings.NewReader(form.Encode()))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if len(s.cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(s.cookies, "; "))
	}

	resp, err := f.doer.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := decodeBody(resp, &tr); err != nil {
		return "", false, fmt.Errorf("token response: %w", err)
	}
	switch {
	case tr.Error == errAuthorizationPending:
		return "", true, nil
	case tr.Error != "":
		return "", false, fmt.Errorf("token endpoint rejected device code: %s", tr.Error)
	case tr.AccessToken == "":
		return "", false, fmt.Errorf("token response missing access token")
	}
	return tr.AccessToken, false, nil
}
