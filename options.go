package pluglogin

import (
	"strings"

	tls_client "github.com/bogdanfinn/tls-client"
)

const (
	// DefaultHost is used when Options.Host is empty.
	DefaultHost = "https://plug.dj"

	// plug.dj endpoints, relative to the host.
	initPath      = "/_/mobile/init"
	guestPath     = "/plug-socket-test"
	loginPath     = "/_/auth/login"
	authTokenPath = "/_/auth/token"
)

// Options configures a login flow. The zero value logs in against DefaultHost
// with a fresh tls-client and no logging.
type Options struct {
	// Host is the base URL of the service. Trailing slashes are trimmed.
	Host string

	// AuthToken requests an auth token once the session is established.
	AuthToken bool

	// Headers are added to every request of the flow. A "Cookie" header
	// supplied here is never replaced by the negotiated session cookie.
	Headers map[string]string

	// Session is an already established session, used by GetAuthToken when
	// Headers carries no cookie.
	Session string

	// SimulateMaintenance makes the CSRF step fail after a short delay
	// without touching the network. Only meant for tests.
	SimulateMaintenance bool

	// Client overrides the transport. When nil every flow builds its own
	// tls-client through NewClient.
	Client Doer

	// Proxy is passed to NewClient when Client is nil.
	Proxy string

	// Logger receives one line per round trip. Defaults to no logging.
	Logger Logger

	// TLSLogger is handed to tls-client when Client is nil.
	TLSLogger tls_client.Logger
}

// normalizeOptions returns a copy of opts with the host defaulted and
// trimmed. It never mutates its argument and is idempotent.
func normalizeOptions(opts *Options) *Options {
	normalized := &Options{}
	if opts != nil {
		*normalized = *opts
	}

	normalized.Host = strings.TrimRight(normalized.Host, "/")
	if normalized.Host == "" {
		normalized.Host = DefaultHost
	}

	if len(normalized.Headers) > 0 {
		headers := make(map[string]string, len(normalized.Headers))
		for k, v := range normalized.Headers {
			headers[k] = v
		}
		normalized.Headers = headers
	}

	return normalized
}

// callerCookie returns the Cookie header supplied by the caller, if any.
func (o *Options) callerCookie() (string, bool) {
	for k, v := range o.Headers {
		if strings.EqualFold(k, "cookie") {
			return v, true
		}
	}
	return "", false
}

func (o *Options) url(path string) string {
	return o.Host + path
}
