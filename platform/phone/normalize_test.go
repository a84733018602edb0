package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(650) 253-0000", "+16502530000"},
		{"650.253.0000", "+16502530000"},
		{"+44 20 7031 3000", "+442070313000"},
		{"  ", ""},
		{"call me", "call me"},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplay(t *testing.T) {
	if got := Display("+16502530000"); got != "(650) 253-0000" {
		t.Errorf("Display = %q", got)
	}
	if IsValid("123") {
		t.Error("short number should be invalid")
	}
}
