package pluglogin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"unicode/utf8"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("login: %w", &Error{Kind: KindMaintenance, Status: "200", Message: "down"})

	if !errors.Is(err, ErrMaintenance) {
		t.Error("errors.Is(err, ErrMaintenance) = false")
	}
	if errors.Is(err, ErrLogin) {
		t.Error("errors.Is(err, ErrLogin) = true")
	}
	if !IsMaintenance(err) {
		t.Error("IsMaintenance(err) = false")
	}
	if got := KindOf(err); got != KindMaintenance {
		t.Errorf("KindOf = %s, want %s", got, KindMaintenance)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %s, want empty", got)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindLogin, Status: "badLogin", Message: "bad credentials"}, "badLogin: bad credentials"},
		{&Error{Kind: KindCsrfNotFound, Message: "could not find CSRF token"}, "CsrfNotFound: could not find CSRF token"},
		{transportError("GET /x failed", context.Canceled), "TransportFailure: GET /x failed: context canceled"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("message mismatch\ngot:  %s\nwant: %s", got, tt.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := transportError("GET /x failed", context.DeadlineExceeded)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause not reachable through Unwrap")
	}
	if !err.Timeout() {
		t.Error("Timeout() = false for a deadline")
	}
}

func TestIsMaintenancePage(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"<html><head><title>maintenance mode</title></head></html>", true},
		{"<HTML><TITLE>Maintenance Mode</TITLE></HTML>", true},
		{`{"status":"maintenanceMode","data":[]}`, true},
		{`{"status":"ok","data":[]}`, false},
		{"<html><title>plug.dj</title></html>", false},
	}

	for _, tt := range tests {
		if got := IsMaintenancePage([]byte(tt.body)); got != tt.want {
			t.Errorf("IsMaintenancePage(%q) = %v, want %v", tt.body, got, tt.want)
		}
	}
}

func TestExtractCsrf(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"json", `{"status":"ok","data":[{"c":"tok123","t":"mobile"}]}`, "tok123", true},
		{"json without data", `{"status":"ok","data":[]}`, "", false},
		{"html", `<script>var _csrf = "abc-def", _st = "x";</script>`, "abc-def", true},
		{"html single quotes", `<script>_csrf='xyz'</script>`, "xyz", true},
		{"nothing", `<html></html>`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractCsrf([]byte(tt.body))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("extractCsrf() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"abcdef", 3, "abc"},
		{"héllo", 2, "h"},
		{"héllo", 3, "hé"},
		{"日本語", 4, "日"},
		{"日本語", 2, ""},
	}

	for _, tt := range tests {
		got := truncate(tt.s, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.s, tt.n, got)
		}
	}
}
