package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"local notation", "0555 123 45 67", "+905551234567"},
		{"international notation", "+90 555 123 4567", "+905551234567"},
		{"already normalized", "+905551234567", "+905551234567"},
		{"surrounding whitespace", "  +905551234567  ", "+905551234567"},
		{"garbage", "not-a-phone", ""},
		{"too short to be valid", "1234", ""},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input); got != tc.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
