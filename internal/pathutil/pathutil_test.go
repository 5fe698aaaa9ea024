package pathutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "src/a.ts", "src/a.ts"},
		{"leading dot slash", "./src/a.ts", "src/a.ts"},
		{"backslashes", `src\a.ts`, "src/a.ts"},
		{"trailing whitespace", "src/a.ts  ", "src/a.ts"},
		{"leading whitespace", "  src/a.ts", "src/a.ts"},
		{"dot slash with backslashes", `.\src\a.ts`, "src/a.ts"},
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
		{"stacked dot slash layers", "././a.ts", "a.ts"},
		{"stacked dot slash with backslashes", `.\.\a.ts`, "a.ts"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"src/a.ts",
		"./src/a.ts",
		`src\a.ts`,
		" ./deep/path\\x.go ",
		"",
		"././b.go",
		"./././c.go",
		".",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeMatchingInvariance(t *testing.T) {
	canonical := "src/a.ts"
	variants := []string{"./src/a.ts", `src\a.ts`, "src/a.ts  "}

	for _, v := range variants {
		if Normalize(v) != Normalize(canonical) {
			t.Errorf("variant %q does not match canonical %q after normalization", v, canonical)
		}
	}
}
