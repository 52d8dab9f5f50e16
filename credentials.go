package pluglogin

import (
	"context"
	"encoding/json"

	http "github.com/bogdanfinn/fhttp"
)

// loginRequest is the body of the login POST.
type loginRequest struct {
	CSRF     string `json:"csrf"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// submitLogin posts credentials with the CSRF token, authenticated by the
// session cookie the token was issued with. It returns the session to use
// from now on: the refreshed one if the response sets a cookie, the given
// one otherwise.
func (f *flow) submitLogin(ctx context.Context, csrf, session, email, password string) (string, []byte, error) {
	payload, err := json.Marshal(loginRequest{CSRF: csrf, Email: email, Password: password})
	if err != nil {
		return "", nil, transportError("failed to marshal login payload", err)
	}

	req, err := f.newRequest(ctx, http.MethodPost, loginPath, acceptJSON, payload, f.cookieFor(session))
	if err != nil {
		return "", nil, transportError("failed to build login request", err)
	}

	resp, body, err := f.doRequest(req)
	if err != nil {
		return "", nil, err
	}

	result, ok := parseAPIResponse(body)
	if !ok {
		if IsMaintenancePage(body) {
			return "", nil, statusError(KindMaintenance, resp.StatusCode, "plug.dj is currently in maintenance mode", body)
		}
		return "", nil, statusError(KindTransport, resp.StatusCode, "unexpected login response: "+truncate(string(body), 200), body)
	}

	if result.Status != "ok" {
		f.logger.Log("Login rejected: %s", result.Status)
		return "", nil, &Error{
			Kind:    KindLogin,
			Status:  result.Status,
			Message: result.firstDetail(),
			Body:    body,
		}
	}

	if refreshed, ok := responseSession(resp); ok {
		session = refreshed
	}
	return session, body, nil
}
