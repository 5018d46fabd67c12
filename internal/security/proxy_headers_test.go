package security

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func mustCIDRs(t *testing.T, raw ...string) []netip.Prefix {
	t.Helper()
	out, err := ParseProxyCIDRs(raw)
	if err != nil {
		t.Fatalf("ParseProxyCIDRs(%v): %v", raw, err)
	}
	return out
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		trust      bool
		trusted    []string
		want       string
	}{
		{
			name:       "no proxy trust uses remote addr",
			remoteAddr: "203.0.113.5:4321",
			xff:        "198.51.100.1",
			trust:      false,
			want:       "203.0.113.5",
		},
		{
			name:       "trusted proxy takes first forwarded hop",
			remoteAddr: "10.0.0.2:4321",
			xff:        "198.51.100.1, 10.0.0.2",
			trust:      true,
			trusted:    []string{"10.0.0.0/8"},
			want:       "198.51.100.1",
		},
		{
			name:       "untrusted source ignores forwarded header",
			remoteAddr: "203.0.113.5:4321",
			xff:        "198.51.100.1",
			trust:      true,
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.5",
		},
		{
			name:       "garbage forwarded header falls back",
			remoteAddr: "10.0.0.2:4321",
			xff:        "not-an-ip",
			trust:      true,
			trusted:    []string{"10.0.0.0/8"},
			want:       "10.0.0.2",
		},
		{
			name:       "single ip in trusted list",
			remoteAddr: "10.0.0.2:4321",
			xff:        "198.51.100.9",
			trust:      true,
			trusted:    []string{"10.0.0.2"},
			want:       "198.51.100.9",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "http://x/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			got := ClientIP(r, tc.trust, mustCIDRs(t, tc.trusted...))
			if got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseProxyCIDRs_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseProxyCIDRs([]string{"not-a-cidr"}); err == nil {
		t.Fatal("expected error for invalid cidr")
	}
	out, err := ParseProxyCIDRs([]string{"", "  "})
	if err != nil || len(out) != 0 {
		t.Fatalf("blank entries should be skipped, got %v, %v", out, err)
	}
}
