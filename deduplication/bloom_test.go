package deduplication

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips utm params",
			in:   "https://Example.com/post?utm_source=x&utm_medium=rss&id=7",
			want: "https://example.com/post?id=7",
		},
		{
			name: "strips fbclid and gclid",
			in:   "https://example.com/a?fbclid=abc&gclid=def",
			want: "https://example.com/a",
		},
		{
			name: "drops fragment and trailing slash",
			in:   "https://example.com/post/#comments",
			want: "https://example.com/post",
		},
		{
			name: "lowercases host only",
			in:   "HTTPS://EXAMPLE.COM/Path/To/Post",
			want: "https://example.com/Path/To/Post",
		},
		{
			name: "unparseable falls back to lowercase",
			in:   "::not a url::",
			want: "::not a url::",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeURL(tt.in); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello   World  ", "hello world"},
		{"ALL CAPS\tTITLE", "all caps title"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashURLStability(t *testing.T) {
	a := HashURL("https://example.com/post?utm_source=telegram")
	b := HashURL("https://EXAMPLE.com/post/")
	if a != b {
		t.Error("equivalent URLs should hash identically")
	}
	if a == HashURL("https://example.com/other") {
		t.Error("different URLs should not collide")
	}
}

func TestHashURLTitleDistinguishesTitles(t *testing.T) {
	url := "https://example.com/post"
	if HashURLTitle(url, "First headline") == HashURLTitle(url, "Second headline") {
		t.Error("different titles should produce different combined hashes")
	}
	if HashURLTitle(url, "Same  Title") != HashURLTitle(url, "same title") {
		t.Error("title normalization should fold case and whitespace")
	}
}
