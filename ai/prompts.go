package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"contentorbit/config"
	"contentorbit/types"
)

// RenderPrompt fills the operator template placeholders from an article
func RenderPrompt(template string, article *types.Article) string {
	summary := article.Excerpt
	if summary == "" {
		summary = article.Summary
	}
	summary = truncateBytes(summary, 1500)

	r := strings.NewReplacer(
		"{topic}", article.Title,
		"{source_summary}", summary,
		"{article_url}", article.URL,
	)
	return r.Replace(template)
}

// BuildPreamble assembles the persona from the brand identity. The
// language hint keeps Arabic hub content Arabic even when the source
// article is English.
func BuildPreamble(brand config.BrandConfig, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the content writer for %s.", brand.Name)
	if brand.Voice != "" {
		fmt.Fprintf(&b, " Your writing voice is %s.", brand.Voice)
	}
	switch language {
	case "ar":
		b.WriteString(" Write in Modern Standard Arabic.")
	case "en":
		b.WriteString(" Write in English.")
	}
	b.WriteString(" Never mention that content is AI-generated. Never invent facts beyond the source material.")
	return b.String()
}

// truncateBytes caps s at n bytes without splitting a multibyte rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
