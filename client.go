package pluglogin

import (
	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// Doer performs a single HTTP round trip. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BrowserProfile bundles a TLS client profile with its corresponding browser headers.
type BrowserProfile struct {
	TLSProfile profiles.ClientProfile
	UserAgent  string
	SecChUa    string
	Platform   string
	Mobile     string
}

// DefaultProfile is the browser profile used for new clients.
var DefaultProfile = &BrowserProfile{
	TLSProfile: profiles.Chrome_133,
	UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	SecChUa:    `"Not(A:Brand";v="99", "Google Chrome";v="133", "Chromium";v="133"`,
	Platform:   `"Windows"`,
	Mobile:     "?0",
}

// NewClient builds a tls-client with the default profile. The client has no
// cookie jar: the session cookie is carried explicitly per request so that
// concurrent logins never share cookie state.
func NewClient(logger tls_client.Logger, proxyURL string) (tls_client.HttpClient, error) {
	return NewClientWithProfile(logger, proxyURL, DefaultProfile.TLSProfile)
}

func NewClientWithProfile(logger tls_client.Logger, proxyURL string, profile profiles.ClientProfile) (tls_client.HttpClient, error) {
	if logger == nil {
		logger = tls_client.NewNoopLogger()
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithClientProfile(profile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithNotFollowRedirects(),
	}

	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	return tls_client.NewHttpClient(logger, options...)
}
