package authapi

import (
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"Bearer abc":       "abc",
		"bearer   abc  ":   "abc",
		"Basic dXNlcjpwdw": "",
		"Bearer":           "",
	}
	for header, want := range cases {
		r := httptest.NewRequest("GET", "/session", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := bearerToken(r); got != want {
			t.Fatalf("bearerToken(%q): got %q want %q", header, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/authenticate", nil)
	r.RemoteAddr = "192.0.2.10:5555"
	r.Header.Set("X-Forwarded-For", "garbage, 203.0.113.9, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.1")

	if got := clientIP(r, false).String(); got != "192.0.2.10" {
		t.Fatalf("untrusted: got %s", got)
	}
	if got := clientIP(r, true).String(); got != "203.0.113.9" {
		t.Fatalf("trusted XFF: got %s", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := clientIP(r, true).String(); got != "198.51.100.1" {
		t.Fatalf("trusted X-Real-IP: got %s", got)
	}

	r.Header.Del("X-Real-IP")
	r.RemoteAddr = "not-an-addr"
	if ip := clientIP(r, true); ip != nil {
		t.Fatalf("expected nil ip, got %s", ip)
	}
	if got := ipKey(nil); got != "unknown" {
		t.Fatalf("ipKey(nil): got %q", got)
	}
}
