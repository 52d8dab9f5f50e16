package pluglogin

import (
	"context"
)

// Result is the outcome of a successful login flow.
type Result struct {
	// Session is the value of the session cookie.
	Session string

	// Cookie is ready to be sent as a Cookie header, see EncodeSessionHeader.
	Cookie string

	// Token is the auth token, empty unless Options.AuthToken was set.
	Token string

	// Body is the raw payload of the decisive response: the login response
	// for users, the socket test page for guests.
	Body []byte
}

// Login is the single entry point for both flows. A non-empty email runs the
// user flow with email and password; an empty email runs the guest flow and
// ignores password. A caller that passes an empty email by mistake therefore
// gets a guest session rather than an error; call User directly to rule that
// out.
func Login(ctx context.Context, email, password string, opts *Options) (*Result, error) {
	if email != "" {
		return User(ctx, email, password, opts)
	}
	return Guest(ctx, opts)
}

// User logs in with an email address and password: fetch a CSRF token,
// submit the credentials, then optionally fetch an auth token. The first
// failing step ends the flow.
func User(ctx context.Context, email, password string, opts *Options) (*Result, error) {
	opts = normalizeOptions(opts)

	f, err := newFlow(opts)
	if err != nil {
		return nil, err
	}

	csrf, session, err := f.acquireCsrf(ctx)
	if err != nil {
		return nil, err
	}

	session, body, err := f.submitLogin(ctx, csrf, session, email, password)
	if err != nil {
		return nil, err
	}
	if session == "" {
		return nil, &Error{Kind: KindTransport, Message: "no session cookie after login", Body: body}
	}

	return f.finish(ctx, session, body)
}

// Guest obtains an anonymous session, then optionally an auth token.
func Guest(ctx context.Context, opts *Options) (*Result, error) {
	opts = normalizeOptions(opts)

	f, err := newFlow(opts)
	if err != nil {
		return nil, err
	}

	session, body, err := f.establishGuest(ctx)
	if err != nil {
		return nil, err
	}

	return f.finish(ctx, session, body)
}

// finish assembles the result and runs the optional token exchange.
func (f *flow) finish(ctx context.Context, session string, body []byte) (*Result, error) {
	result := &Result{
		Session: session,
		Cookie:  EncodeSessionHeader(session),
		Body:    body,
	}

	if f.opts.AuthToken {
		token, err := f.exchangeToken(ctx, f.cookieFor(session))
		if err != nil {
			return nil, err
		}
		result.Token = token
	}

	return result, nil
}
