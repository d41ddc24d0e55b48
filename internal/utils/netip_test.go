package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParseHostNoPort(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"1.2.3.4":        "1.2.3.4",
		"1.2.3.4:8080":   "1.2.3.4",
		"[::1]:443":      "::1",
		"[::1]":          "::1",
		"example.com:80": "example.com",
		"example.com":    "example.com",
	}
	for in, want := range tests {
		if got := ParseHostNoPort(in); got != want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.7")

	if got := ClientIP(req, false); got != "127.0.0.1" {
		t.Errorf("untrusted ClientIP = %q, want RemoteAddr host", got)
	}
	if got := ClientIP(req, true); got != "203.0.113.9" {
		t.Errorf("trusted ClientIP = %q, want first X-Forwarded-For hop", got)
	}

	req.Header.Set("CF-Connecting-IP", "192.0.2.44")
	if got := ClientIP(req, true); got != "192.0.2.44" {
		t.Errorf("ClientIP = %q, want CF-Connecting-IP", got)
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.10 ", "garbage", "", "2001:db8::/32"})

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (garbage and blanks ignored)", m.Len())
	}

	tests := map[string]bool{
		"10.20.30.40":     true,
		"192.168.1.10":    true,
		"192.168.1.11":    false,
		"::ffff:10.1.1.1": true,
		"2001:db8::1":     true,
		"2001:db9::1":     false,
		"not-an-ip":       false,
	}
	for ip, want := range tests {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("nil list should give an empty matcher")
	}
}
