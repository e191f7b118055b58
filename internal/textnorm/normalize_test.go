package textnorm

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  ＡＢＣ　Ｄｅｆ  ",
		"ﾄﾖﾀ自動車　株式會社",
		"Acme  K.K.\t\nTokyo",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeWidthVariants(t *testing.T) {
	// Half-width katakana and full-width ASCII fold to the same
	// canonical form as their modern equivalents.
	cases := []struct{ in, want string }{
		{"ﾄﾖﾀ", "トヨタ"},
		{"ＡＢＣ商事", "abc商事"},
		{"株式會社　山田", "株式会社 山田"},
		{"  foo \t bar  ", "foo bar"},
		{"ACME", "acme"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q, want \"\"", got)
	}
	if got := Normalize("   "); got != "" {
		t.Errorf("Normalize(whitespace) = %q, want \"\"", got)
	}
}
