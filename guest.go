package pluglogin

import (
	"bytes"
	"context"

	http "github.com/bogdanfinn/fhttp"
)

var maintenanceMarker = []byte("<title>maintenance")

// maintenanceStatus is the API status plug.dj answers with during downtime.
const maintenanceStatus = "maintenanceMode"

// IsMaintenancePage reports whether a response body signals maintenance
// mode, either through the page title or through the JSON status.
func IsMaintenancePage(body []byte) bool {
	if bytes.Contains(bytes.ToLower(body), maintenanceMarker) {
		return true
	}
	resp, ok := parseAPIResponse(body)
	return ok && resp.Status == maintenanceStatus
}

// establishGuest requests the socket test page, which hands out a fresh
// session cookie without credentials.
func (f *flow) establishGuest(ctx context.Context) (session string, body []byte, err error) {
	req, err := f.newRequest(ctx, http.MethodGet, guestPath, acceptHTML, nil, f.cookieFor(""))
	if err != nil {
		return "", nil, transportError("failed to build guest request", err)
	}

	resp, body, err := f.doRequest(req)
	if err != nil {
		return "", nil, err
	}

	// plug.dj serves its maintenance page with a 200, so look at the
	// content before the status code.
	if IsMaintenancePage(body) {
		return "", nil, statusError(KindMaintenance, resp.StatusCode, "plug.dj is currently in maintenance mode", body)
	}

	if !isSuccess(resp.StatusCode) {
		return "", nil, statusError(KindTransport, resp.StatusCode, "unexpected guest response: "+truncate(string(body), 200), body)
	}

	session, ok := responseSession(resp)
	if !ok {
		return "", nil, statusError(KindTransport, resp.StatusCode, "no session cookie in guest response", body)
	}

	return session, body, nil
}
