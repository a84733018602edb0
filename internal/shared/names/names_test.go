package names

import "testing"

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"   ":             "",
		"angel":           "Angel",
		"  mary   ANN  ":  "Mary Ann",
		"JOSÉ garcía":     "José García",
		"anne-marie cole": "Anne-Marie Cole",
	}
	for in, want := range cases {
		if got := Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}
