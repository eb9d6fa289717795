package submission

import "testing"

func TestIsValidPostURL(t *testing.T) {
	cases := map[string]bool{
		"https://x.com/mavryk/status/1234567890123456789":     true,
		"https://twitter.com/mavryk/status/123":               true,
		"http://x.com/mavryk/status/123":                      true,
		"https://www.twitter.com/mavryk/status/123":           true,
		"https://x.com/i/web/status/123":                      true,
		"https://x.com/status/123":                            true,
		"  https://x.com/mavryk/status/123  ":                 true,
		"https://x.com/mavryk/status/123?s=20&t=abc":          true,
		"x.com/mavryk/status/123":                             false,
		"https://x.com/mavryk/status/abc":                     false,
		"https://x.com":                                       false,
		"https://example.com/mavryk/status/123":               false,
		"https://x.com/mavryk/statuses/123":                   false,
		"https://x.com/ma vryk/status/123":                    false,
		"":                                                    false,
		"   ":                                                 false,
		"not a url":                                           false,
		"ftp://x.com/mavryk/status/123":                       false,
	}
	for input, expected := range cases {
		if got := IsValidPostURL(input); got != expected {
			t.Errorf("IsValidPostURL(%q) = %v, expected %v", input, got, expected)
		}
	}
}

func TestExtractPostID(t *testing.T) {
	if id := ExtractPostID("https://x.com/mavryk/status/1234567890"); id != "1234567890" {
		t.Fatalf("unexpected id: %s", id)
	}
	if id := ExtractPostID("https://x.com/i/web/status/42?s=20"); id != "42" {
		t.Fatalf("unexpected id with query: %s", id)
	}
	if id := ExtractPostID("https://example.com/status/1"); id != "" {
		t.Fatalf("expected empty id for invalid url, got %s", id)
	}
	if id := ExtractPostID("https://x.com/a/status/1abc"); id != "" {
		t.Fatalf("expected empty id for malformed status id, got %s", id)
	}
}

func TestExtractPostIDIgnoresQueryString(t *testing.T) {
	base := "https://x.com/mavryk/status/987654321"
	if ExtractPostID(base) != ExtractPostID(base+"?foo=1") {
		t.Fatal("id must not depend on the query string")
	}
}

func TestExtractAuthor(t *testing.T) {
	cases := map[string]string{
		"https://x.com/mavryk/status/1":       "mavryk",
		"https://twitter.com/Some_User1/status/2": "Some_User1",
		"https://x.com/i/web/status/3":        "i",
		"https://example.com/a/status/4":      "",
	}
	for input, expected := range cases {
		if got := ExtractAuthor(input); got != expected {
			t.Errorf("ExtractAuthor(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestNormalizePostURL(t *testing.T) {
	cases := map[string]string{
		"https://x.com/mavryk/status/1?s=20":    "https://x.com/mavryk/status/1",
		"http://x.com/mavryk/status/1":          "https://x.com/mavryk/status/1",
		" https://x.com/mavryk/status/1 ":       "https://x.com/mavryk/status/1",
		"https://twitter.com/a/status/99?t=x&y": "https://twitter.com/a/status/99",
		"x.com/mavryk/status/1":                 "",
		"garbage":                               "",
	}
	for input, expected := range cases {
		if got := NormalizePostURL(input); got != expected {
			t.Errorf("NormalizePostURL(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestNormalizePostURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://x.com/mavryk/status/1?s=20",
		"http://www.twitter.com/a/status/2",
		"https://x.com/i/web/status/3",
	}
	for _, input := range inputs {
		once := NormalizePostURL(input)
		if once == "" {
			t.Fatalf("expected valid input: %q", input)
		}
		if twice := NormalizePostURL(once); twice != once {
			t.Errorf("not idempotent for %q: %q != %q", input, twice, once)
		}
	}
}
