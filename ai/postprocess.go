package ai

import (
	"regexp"
	"strings"
)

var (
	htmlHeadingRe = regexp.MustCompile(`(?is)<h[12][^>]*>(.*?)</h[12]>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	codeFenceRe   = regexp.MustCompile("(?s)^```[a-zA-Z]*\n?|```\\s*$")
	tagCleanRe    = regexp.MustCompile(`[^a-z0-9]`)
)

// StripCodeFences removes a wrapping markdown code fence the model
// sometimes adds around HTML output.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFenceRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

// ExtractHTMLTitle pulls the first h1/h2 text out of generated HTML,
// returning the cleaned body with that heading removed and the title.
// Falls back to the given default when no heading exists.
func ExtractHTMLTitle(html, fallback string) (title, body string) {
	html = StripCodeFences(html)
	m := htmlHeadingRe.FindStringSubmatchIndex(html)
	if m == nil {
		return fallback, html
	}
	title = strings.TrimSpace(htmlTagRe.ReplaceAllString(html[m[2]:m[3]], ""))
	body = strings.TrimSpace(html[:m[0]] + html[m[1]:])
	if title == "" {
		title = fallback
	}
	return title, body
}

// ExtractMarkdownTitle pulls a leading "# Title" line out of markdown
func ExtractMarkdownTitle(md, fallback string) (title, body string) {
	md = StripCodeFences(md)
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return title, body
		}
		break
	}
	return fallback, md
}

// CleanHeadline strips quotes, markdown markers and length overflow
// from a generated one-line headline.
func CleanHeadline(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	// models often quote or bold the headline
	s = strings.Trim(s, "\"'“”«»*#")
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	if maxLen > 0 {
		runes := []rune(s)
		if len(runes) > maxLen {
			s = strings.TrimSpace(string(runes[:maxLen-1])) + "…"
		}
	}
	return s
}

// SanitizeTags lowercases, strips non-alphanumerics and dedupes tags,
// keeping at most max. Dev.to rejects tags with punctuation.
func SanitizeTags(tags []string, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		clean := tagCleanRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(t)), "")
		if clean == "" || len(clean) < 2 || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
		if len(out) == max {
			break
		}
	}
	return out
}

// KeywordTags derives tags from feed categories plus title words.
// Crude but good enough as a fallback when the model gives none.
func KeywordTags(title string, categories []string, max int) []string {
	candidates := append([]string{}, categories...)
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = tagCleanRe.ReplaceAllString(w, "")
		if len(w) >= 5 {
			candidates = append(candidates, w)
		}
	}
	return SanitizeTags(candidates, max)
}
