package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  memo.md ":        "memo.md",
		"a/b\\c:d":          "a-b-c-d",
		"what?.md":          "what.md",
		"<quoted|\"name\">": "quotedname",
		"":                  "",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := map[string]string{
		"Meeting Notes": "meeting_notes",
		"draft-v2":      "draft-v2",
		"  ":            "unknown",
		"___":           "unknown",
		"Résumé":        "r_sum",
	}
	for input, want := range cases {
		if got := SanitizeToken(input); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}
