package server

import (
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"
)

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.Allow("10.0.0.1") || rl.Allow("10.0.0.1") {
		t.Fatal("expected one request through and the second one limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a second client shares the bucket of the first")
	}
	rl.Cleanup(time.Hour)
	if n := rl.clientCount(); n != 2 {
		t.Errorf("%v clients after a lenient cleanup, want 2", n)
	}
	time.Sleep(time.Millisecond)
	rl.Cleanup(0)
	if n := rl.clientCount(); n != 0 {
		t.Errorf("%v clients after cleaning up everything, want 0", n)
	}
}

func TestClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("192.0.2.0/24")}
	tests := []struct {
		name, remote, xff string
		trusted           []netip.Prefix
		want              string
	}{
		{"direct", "192.0.2.1:1234", "", proxies, "192.0.2.1"},
		{"trusted proxy", "192.0.2.1:1234", "203.0.113.7, 10.0.0.1", proxies, "203.0.113.7"},
		{"forged header", "198.51.100.9:1234", "203.0.113.7", proxies, "198.51.100.9"},
		{"no trusted proxies", "192.0.2.1:1234", "203.0.113.7", nil, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if ip := clientIP(r, tt.trusted); ip != tt.want {
				t.Errorf("clientIP() = %q, want %q", ip, tt.want)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies("127.0.0.1, 10.1.2.3/8,")
	if err != nil {
		t.Fatalf("ParseTrustedProxies failed: %v", err)
	}
	want := []netip.Prefix{netip.MustParsePrefix("127.0.0.1/32"), netip.MustParsePrefix("10.0.0.0/8")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ParseTrustedProxies() = %v, want %v", got, want)
	}
	if _, err := ParseTrustedProxies("not an address"); err == nil {
		t.Error("expected an error for an invalid address")
	}
}
