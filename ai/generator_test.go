package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"contentorbit/config"
	"contentorbit/types"
)

// fakeGen returns canned text and records the prompts it saw
type fakeGen struct {
	response string
	failure  error
	prompts  []string
	preamble string
}

func (f *fakeGen) Generate(_ context.Context, preamble, prompt string) (string, error) {
	f.preamble = preamble
	f.prompts = append(f.prompts, prompt)
	if f.failure != nil {
		return "", f.failure
	}
	return f.response, nil
}

func testArticle() *types.Article {
	return &types.Article{
		Title:      "Quantum chips hit a milestone",
		URL:        "https://example.com/quantum",
		Excerpt:    "Researchers announced a working 1000-qubit chip.",
		Categories: []string{"tech", "quantum"},
	}
}

func testBrand() config.BrandConfig {
	return config.BrandConfig{Name: "Orbit News", Voice: "sharp and curious", PrimaryLanguage: "ar"}
}

func TestRenderPrompt(t *testing.T) {
	article := testArticle()
	out := RenderPrompt("Topic: {topic} | Sum: {source_summary} | URL: {article_url}", article)

	if !strings.Contains(out, article.Title) {
		t.Error("topic placeholder not replaced")
	}
	if !strings.Contains(out, article.Excerpt) {
		t.Error("summary placeholder not replaced")
	}
	if !strings.Contains(out, article.URL) {
		t.Error("url placeholder not replaced")
	}
}

func TestRenderPromptFallsBackToSummary(t *testing.T) {
	article := &types.Article{Title: "T", URL: "u", Summary: "rss summary"}
	out := RenderPrompt("{source_summary}", article)
	if out != "rss summary" {
		t.Errorf("summary fallback = %q", out)
	}
}

func TestRenderPromptTruncatesOnRuneBoundary(t *testing.T) {
	// Arabic runes are 2 bytes; an odd byte cap would split one
	article := &types.Article{
		Title:   "T",
		URL:     "u",
		Excerpt: strings.Repeat("م", 1200), // 2400 bytes
	}
	out := RenderPrompt("{source_summary}", article)

	if !utf8.ValidString(out) {
		t.Fatal("truncated summary is not valid UTF-8")
	}
	if len(out) > 1500 {
		t.Errorf("summary length = %d bytes, want <= 1500", len(out))
	}
}

func TestBuildPreamble(t *testing.T) {
	p := BuildPreamble(testBrand(), "ar")
	if !strings.Contains(p, "Orbit News") {
		t.Error("brand name missing from preamble")
	}
	if !strings.Contains(p, "sharp and curious") {
		t.Error("brand voice missing from preamble")
	}
	if !strings.Contains(p, "Arabic") {
		t.Error("language hint missing from preamble")
	}
}

func TestBloggerArticleExtractsTitle(t *testing.T) {
	gen := &fakeGen{response: "<h2>Generated Headline</h2><p>Body paragraph.</p>"}
	c := NewContentGenerator(gen, testBrand(), config.DefaultPrompts())

	title, html, err := c.BloggerArticle(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("BloggerArticle failed: %v", err)
	}
	if title != "Generated Headline" {
		t.Errorf("title = %q", title)
	}
	if strings.Contains(html, "<h2>Generated Headline</h2>") {
		t.Error("heading should be removed from body")
	}
	if !strings.Contains(html, "Body paragraph.") {
		t.Error("body lost during title extraction")
	}
	if !strings.Contains(gen.preamble, "Arabic") {
		t.Error("blogger article should use the primary language")
	}
}

func TestDevtoArticle(t *testing.T) {
	gen := &fakeGen{response: "# Dev Title\n\nContent here."}
	c := NewContentGenerator(gen, testBrand(), config.DefaultPrompts())

	title, md, tags, err := c.DevtoArticle(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("DevtoArticle failed: %v", err)
	}
	if title != "Dev Title" {
		t.Errorf("title = %q", title)
	}
	if strings.HasPrefix(md, "#") {
		t.Errorf("title line should be stripped from body: %q", md)
	}
	if len(tags) == 0 || len(tags) > 4 {
		t.Errorf("tags = %v, want 1-4", tags)
	}
	if !strings.Contains(gen.preamble, "English") {
		t.Error("devto article must be generated in English")
	}
}

func TestSocialTitleCleaned(t *testing.T) {
	gen := &fakeGen{response: `"A Quoted Headline"` + "\nsecond line ignored"}
	c := NewContentGenerator(gen, testBrand(), config.DefaultPrompts())

	title, err := c.SocialTitle(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("SocialTitle failed: %v", err)
	}
	if title != "A Quoted Headline" {
		t.Errorf("title = %q", title)
	}
}

func TestGenerationFailurePropagates(t *testing.T) {
	gen := &fakeGen{failure: errors.New("api down")}
	c := NewContentGenerator(gen, testBrand(), config.DefaultPrompts())

	if _, _, err := c.BloggerArticle(context.Background(), testArticle()); err == nil {
		t.Error("expected blogger error")
	}
	if _, err := c.SocialTitle(context.Background(), testArticle()); err == nil {
		t.Error("expected social title error")
	}
}

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "h2 heading",
			html:      "<h2>Title Here</h2><p>Body</p>",
			wantTitle: "Title Here",
			wantBody:  "<p>Body</p>",
		},
		{
			name:      "h1 with nested tags",
			html:      "<h1><strong>Bold</strong> Title</h1><p>x</p>",
			wantTitle: "Bold Title",
			wantBody:  "<p>x</p>",
		},
		{
			name:      "no heading falls back",
			html:      "<p>only body</p>",
			wantTitle: "fallback",
			wantBody:  "<p>only body</p>",
		},
		{
			name:      "code fence stripped",
			html:      "```html\n<h2>Fenced</h2><p>y</p>\n```",
			wantTitle: "Fenced",
			wantBody:  "<p>y</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := ExtractHTMLTitle(tt.html, "fallback")
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestExtractMarkdownTitle(t *testing.T) {
	title, body := ExtractMarkdownTitle("# My Title\n\nBody text", "fb")
	if title != "My Title" || body != "Body text" {
		t.Errorf("got %q / %q", title, body)
	}

	title, body = ExtractMarkdownTitle("No heading here", "fb")
	if title != "fb" || body != "No heading here" {
		t.Errorf("fallback got %q / %q", title, body)
	}
}

func TestSanitizeTags(t *testing.T) {
	got := SanitizeTags([]string{"Go-Lang", "AI!", "ai", "x", ""}, 4)
	want := []string{"golang", "ai"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCleanHeadlineTruncates(t *testing.T) {
	long := strings.Repeat("word ", 50)
	got := CleanHeadline(long, 30)
	if len([]rune(got)) > 30 {
		t.Errorf("headline too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}
