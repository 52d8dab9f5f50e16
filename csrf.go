package pluglogin

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

// simulatedMaintenanceDelay is how long the CSRF step stalls before failing
// when Options.SimulateMaintenance is set.
const simulatedMaintenanceDelay = 300 * time.Millisecond

// csrfPattern matches the token embedded in plug.dj's HTML pages.
var csrfPattern = regexp.MustCompile(`_csrf\s*=\s*["']([^"']+)["']`)

// initResponse is the payload of the mobile init endpoint.
type initResponse struct {
	Status string `json:"status"`
	Data   []struct {
		CSRF string `json:"c"`
	} `json:"data"`
}

// acquireCsrf fetches a CSRF token and the session cookie it is bound to.
// The session may be empty when the response sets none.
func (f *flow) acquireCsrf(ctx context.Context) (csrf, session string, err error) {
	if f.opts.SimulateMaintenance {
		return "", "", f.simulateMaintenance(ctx)
	}

	req, err := f.newRequest(ctx, http.MethodGet, initPath, acceptJSON, nil, f.cookieFor(""))
	if err != nil {
		return "", "", transportError("failed to build init request", err)
	}

	resp, body, err := f.doRequest(req)
	if err != nil {
		return "", "", err
	}

	if IsMaintenancePage(body) {
		return "", "", statusError(KindMaintenance, resp.StatusCode, "plug.dj is currently in maintenance mode", body)
	}

	csrf, ok := extractCsrf(body)
	if !ok {
		if !isSuccess(resp.StatusCode) {
			return "", "", statusError(KindTransport, resp.StatusCode, "unexpected init response: "+truncate(string(body), 200), body)
		}
		return "", "", statusError(KindCsrfNotFound, resp.StatusCode, "could not find CSRF token", body)
	}

	session, _ = responseSession(resp)
	return csrf, session, nil
}

func (f *flow) simulateMaintenance(ctx context.Context) error {
	f.logger.Log("Simulating maintenance mode...")

	timer := time.NewTimer(simulatedMaintenanceDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return transportError("cancelled while fetching CSRF token", ctx.Err())
	case <-timer.C:
	}

	return &Error{Kind: KindCsrfNotFound, Message: "could not find CSRF token"}
}

// extractCsrf reads the token from the init JSON payload, falling back to
// the inline script variable of an HTML page.
func extractCsrf(body []byte) (string, bool) {
	var init initResponse
	if err := json.Unmarshal(body, &init); err == nil {
		if len(init.Data) > 0 && init.Data[0].CSRF != "" {
			return init.Data[0].CSRF, true
		}
		return "", false
	}

	if m := csrfPattern.FindSubmatch(body); m != nil {
		return string(m[1]), true
	}
	return "", false
}
