package pluglogin

import (
	"context"

	http "github.com/bogdanfinn/fhttp"
)

// exchangeToken trades an established session for an auth token.
func (f *flow) exchangeToken(ctx context.Context, cookie string) (string, error) {
	req, err := f.newRequest(ctx, http.MethodGet, authTokenPath, acceptJSON, nil, cookie)
	if err != nil {
		return "", transportError("failed to build token request", err)
	}

	resp, body, err := f.doRequest(req)
	if err != nil {
		return "", err
	}

	result, ok := parseAPIResponse(body)
	if !ok {
		return "", statusError(KindTransport, resp.StatusCode, "unexpected token response: "+truncate(string(body), 200), body)
	}

	if result.Status != "ok" {
		return "", &Error{
			Kind:    KindTokenExchange,
			Status:  result.Status,
			Message: result.firstDetail(),
			Body:    body,
		}
	}

	token := result.firstDetail()
	if token == "" {
		return "", &Error{Kind: KindTokenExchange, Status: result.Status, Message: "empty token", Body: body}
	}
	return token, nil
}

// GetAuthToken exchanges an existing session for an auth token. The session
// is taken from a "Cookie" entry in opts.Headers, or from opts.Session.
func GetAuthToken(ctx context.Context, opts *Options) (string, error) {
	opts = normalizeOptions(opts)

	f, err := newFlow(opts)
	if err != nil {
		return "", err
	}

	return f.exchangeToken(ctx, f.cookieFor(opts.Session))
}
