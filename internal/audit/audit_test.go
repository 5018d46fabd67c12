package audit

import (
	"strings"
	"testing"
)

func TestRedactBody(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		in          string
		wantMasked  []string
		wantPresent []string
	}{
		{
			name:        "password masked",
			in:          `{"login":"alice","password":"hunter2"}`,
			wantMasked:  []string{"hunter2"},
			wantPresent: []string{"alice", "***"},
		},
		{
			name:        "multiple sensitive fields",
			in:          `{"token":"tok123","secret":"s3cret","note":"ok"}`,
			wantMasked:  []string{"tok123", "s3cret"},
			wantPresent: []string{"ok"},
		},
		{
			name:        "no sensitive fields untouched",
			in:          `{"title":"hello"}`,
			wantPresent: []string{"hello"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := string(RedactBody([]byte(tc.in)))
			for _, m := range tc.wantMasked {
				if strings.Contains(out, m) {
					t.Fatalf("RedactBody(%s) still contains %q: %s", tc.in, m, out)
				}
			}
			for _, p := range tc.wantPresent {
				if !strings.Contains(out, p) {
					t.Fatalf("RedactBody(%s) lost %q: %s", tc.in, p, out)
				}
			}
		})
	}
}

func TestRedactBody_NonJSONPassthrough(t *testing.T) {
	t.Parallel()

	in := []byte("plain text password=hunter2")
	if got := RedactBody(in); string(got) != string(in) {
		t.Fatalf("non-JSON input must pass through, got %q", got)
	}
}
