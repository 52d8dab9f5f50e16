package pluglogin

import (
	"bytes"
	"context"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/google/uuid"
)

// flow owns everything one login negotiation needs. It is never shared
// between calls.
type flow struct {
	opts    *Options
	client  Doer
	logger  Logger
	profile *BrowserProfile
}

// newFlow builds a flow from already normalized options.
func newFlow(opts *Options) (*flow, error) {
	base := opts.Logger
	if base == nil {
		base = nopLogger{}
	}
	logger := &flowLogger{id: generateFlowID(), base: base}

	client := opts.Client
	if client == nil {
		c, err := NewClient(opts.TLSLogger, opts.Proxy)
		if err != nil {
			return nil, transportError("failed to create client", err)
		}
		client = c
	}

	return &flow{
		opts:    opts,
		client:  client,
		logger:  logger,
		profile: DefaultProfile,
	}, nil
}

func generateFlowID() string {
	return uuid.New().String()[:8]
}

// cookieFor returns the Cookie header to send for session. A cookie supplied
// by the caller always wins.
func (f *flow) cookieFor(session string) string {
	if cookie, ok := f.opts.callerCookie(); ok {
		return cookie
	}
	if session == "" {
		return ""
	}
	return EncodeSessionHeader(session)
}

// newRequest builds a browser-like request against the configured host.
func (f *flow) newRequest(ctx context.Context, method, path, accept string, body []byte, cookie string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.opts.url(path), reader)
	if err != nil {
		return nil, err
	}

	req.Header = http.Header{
		"accept":             {accept},
		"user-agent":         {f.profile.UserAgent},
		"sec-ch-ua":          {f.profile.SecChUa},
		"sec-ch-ua-mobile":   {f.profile.Mobile},
		"sec-ch-ua-platform": {f.profile.Platform},
		"referer":            {f.opts.Host + "/"},
		"accept-encoding":    {"gzip, deflate, br"},
		"accept-language":    {"en-US,en;q=0.9"},
		http.HeaderOrderKey:  headerOrder,
		http.PHeaderOrderKey: PseudoHeaderOrder,
	}
	if body != nil {
		req.Header["content-type"] = []string{"application/json"}
		req.Header["origin"] = []string{f.opts.Host}
	}

	for k, v := range f.opts.Headers {
		req.Header[strings.ToLower(k)] = []string{v}
	}
	if _, ok := req.Header["cookie"]; !ok && cookie != "" {
		req.Header["cookie"] = []string{cookie}
	}

	return req, nil
}

// doRequest executes req, reads the whole body and logs the outcome.
// Transport failures, including a cancelled context, come back as
// KindTransport errors.
func (f *flow) doRequest(req *http.Request) (*http.Response, []byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Log("%s %s -> error: %v", req.Method, req.URL.Path, err)
		return nil, nil, transportError(req.Method+" "+req.URL.Path+" failed", err)
	}
	defer resp.Body.Close()

	body, err := readResponseBody(resp)
	if err != nil {
		f.logger.Log("%s %s -> %d (unreadable body: %v)", req.Method, req.URL.Path, resp.StatusCode, err)
		return nil, nil, transportError("failed to read response body", err)
	}

	f.logger.Log("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	return resp, body, nil
}
