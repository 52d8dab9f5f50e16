package plugtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	fhttp "github.com/bogdanfinn/fhttp"
)

// Transport serves fhttp requests from an http.Handler in-process. It
// satisfies pluglogin.Doer.
type Transport struct {
	handler http.Handler
}

// Client returns a transport bound to s.
func (s *Server) Client() *Transport {
	return NewTransport(s)
}

// NewTransport wraps any handler.
func NewTransport(handler http.Handler) *Transport {
	return &Transport{handler: handler}
}

func (t *Transport) Do(req *fhttp.Request) (*fhttp.Response, error) {
	ctx := req.Context()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	r := httptest.NewRequest(req.Method, req.URL.String(), body).WithContext(ctx)
	for k, values := range req.Header {
		if k == fhttp.HeaderOrderKey || k == fhttp.PHeaderOrderKey {
			continue
		}
		for _, v := range values {
			r.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, r)
	res := rec.Result()

	return &fhttp.Response{
		Status:        res.Status,
		StatusCode:    res.StatusCode,
		Proto:         res.Proto,
		ProtoMajor:    res.ProtoMajor,
		ProtoMinor:    res.ProtoMinor,
		Header:        fhttp.Header(res.Header),
		Body:          res.Body,
		ContentLength: res.ContentLength,
		Request:       req,
	}, nil
}
