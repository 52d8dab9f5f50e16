package pluglogin

import (
	http "github.com/bogdanfinn/fhttp"
)

const sessionCookieName = "session"

// ExtractSession returns the value of the first cookie named "session" found
// in a list of raw Set-Cookie header values. The boolean is false when no
// such cookie is present.
func ExtractSession(setCookie []string) (string, bool) {
	for _, raw := range setCookie {
		resp := &http.Response{Header: http.Header{"Set-Cookie": {raw}}}
		for _, cookie := range resp.Cookies() {
			if cookie.Name == sessionCookieName {
				return cookie.Value, true
			}
		}
	}
	return "", false
}

// EncodeSessionHeader builds a Cookie header value carrying session.
//
// The value is written verbatim: plug.dj only accepts a literal "|" in the
// session cookie and silently rejects an escaped one, so neither
// percent-encoding nor http.Cookie's quoting may be applied here.
func EncodeSessionHeader(session string) string {
	return sessionCookieName + "=" + session
}

func responseSession(resp *http.Response) (string, bool) {
	return ExtractSession(resp.Header["Set-Cookie"])
}
