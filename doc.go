// Package pluglogin logs in to plug.dj and hands back a session cookie.
//
// Two flows are supported. The user flow fetches a CSRF token together with a
// fresh session cookie, then posts the credentials with both:
//
//	res, err := pluglogin.Login(ctx, "me@example.com", "hunter2", nil)
//	if err != nil {
//	    return err
//	}
//	req.Header.Set("Cookie", res.Cookie)
//
// The guest flow only asks for an anonymous session:
//
//	res, err := pluglogin.Login(ctx, "", "", &pluglogin.Options{AuthToken: true})
//
// Login picks the flow from the email argument; User and Guest call a flow
// directly, and GetAuthToken exchanges an existing session for an auth token.
//
// # Cookies
//
// plug.dj session values contain a literal "|" which the service refuses in
// escaped form. Use Result.Cookie or EncodeSessionHeader rather than an
// http.Cookie, whose serialization may quote the value.
//
// # Errors
//
// Every operation returns *Error. Switch on its Kind, or use errors.Is with
// the Err* sentinels:
//
//	switch pluglogin.KindOf(err) {
//	case pluglogin.KindMaintenance:
//	    // try again later
//	case pluglogin.KindLogin:
//	    // bad credentials; err.(*pluglogin.Error).Body holds the raw answer
//	}
//
// Nothing is retried. Each call builds its own transport unless
// Options.Client is set, so concurrent logins share no state.
package pluglogin
