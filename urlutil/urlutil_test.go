package urlutil

import "testing"

func TestHost(t *testing.T) {
	cases := map[string]string{
		"https://Example.com/path":      "example.com",
		"http://example.com:8080/path":  "example.com",
		"https://example.com":           "example.com",
		"not a url":                     "not a url",
		"https://a.test/private/x?y=1": "a.test",
	}
	for in, want := range cases {
		if got := Host(in); got != want {
			t.Errorf("Host(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSameHost(t *testing.T) {
	if !SameHost("https://A.test/x", "https://a.test/y") {
		t.Errorf("expected same host")
	}
	if SameHost("https://a.test/x", "https://b.test/y") {
		t.Errorf("expected different host")
	}
}

func TestIsValidHTTP(t *testing.T) {
	valid := []string{"http://a.test", "https://a.test/x?y=1"}
	invalid := []string{"ftp://a.test", "javascript:alert(1)", "mailto:a@b.com", "/relative", ""}
	for _, v := range valid {
		if !IsValidHTTP(v) {
			t.Errorf("IsValidHTTP(%q) = false, want true", v)
		}
	}
	for _, v := range invalid {
		if IsValidHTTP(v) {
			t.Errorf("IsValidHTTP(%q) = true, want false", v)
		}
	}
}

func TestResolve(t *testing.T) {
	got, ok := Resolve("https://a.test/dir/page", "../other")
	if !ok || got != "https://a.test/other" {
		t.Errorf("Resolve = %q, %v", got, ok)
	}
}
