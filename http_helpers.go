package pluglogin

import (
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"

	http "github.com/bogdanfinn/fhttp"
)

// PseudoHeaderOrder is the standard HTTP/2 pseudo-header order for all requests.
var PseudoHeaderOrder = []string{
	":method",
	":authority",
	":scheme",
	":path",
}

const (
	acceptJSON = "application/json, text/javascript, */*; q=0.01"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
)

var headerOrder = []string{
	"accept",
	"content-type",
	"user-agent",
	"sec-ch-ua",
	"sec-ch-ua-mobile",
	"sec-ch-ua-platform",
	"origin",
	"referer",
	"accept-encoding",
	"accept-language",
	"cookie",
}

// readResponseBody decompresses and reads the full response body.
// Caller should defer resp.Body.Close() before calling this.
func readResponseBody(resp *http.Response) ([]byte, error) {
	body := http.DecompressBody(resp)
	defer body.Close()
	return io.ReadAll(body)
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// apiResponse is the envelope every plug.dj JSON endpoint answers with.
type apiResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// parseAPIResponse decodes body as an API envelope. ok is false when the
// body is not JSON or has no status.
func parseAPIResponse(body []byte) (resp apiResponse, ok bool) {
	if err := json.Unmarshal(body, &resp); err != nil {
		return apiResponse{}, false
	}
	return resp, resp.Status != ""
}

// firstDetail renders the first data element as a string. String elements
// are unquoted; anything else is returned as raw JSON.
func (r apiResponse) firstDetail() string {
	if len(r.Data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Data[0], &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.Data[0]))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
