// Package cta assembles platform-specific calls to action. The hub
// pages (Blogger, Dev.to) cross-link each other; the spokes (Telegram,
// Facebook) drive readers toward the hubs.
package cta

import (
	"fmt"
	"html"
	"strings"

	"contentorbit/config"
)

// PlatformLinks carries everything a builder may want to link to.
// Post links are per-run; the rest come from config.
type PlatformLinks struct {
	BloggerPost     string
	BloggerHome     string
	DevtoPost       string
	DevtoProfile    string
	TelegramChannel string
	FacebookPage    string
	OriginalURL     string
}

// FromConfig seeds the static links from the app config
func FromConfig(cfg *config.AppConfig) PlatformLinks {
	return PlatformLinks{
		BloggerHome:     cfg.Blogger.BlogURL,
		DevtoProfile:    cfg.Devto.ProfileURL,
		TelegramChannel: cfg.Telegram.ChannelURL,
		FacebookPage:    cfg.Facebook.PageURL,
	}
}

// BloggerFooter returns the HTML footer appended to hub articles
func BloggerFooter(links PlatformLinks) string {
	var parts []string
	if links.DevtoPost != "" {
		parts = append(parts, fmt.Sprintf(`<a href="%s">Read the English version on Dev.to</a>`, links.DevtoPost))
	}
	if links.TelegramChannel != "" {
		parts = append(parts, fmt.Sprintf(`<a href="%s">Join our Telegram channel</a>`, links.TelegramChannel))
	}
	if links.FacebookPage != "" {
		parts = append(parts, fmt.Sprintf(`<a href="%s">Follow us on Facebook</a>`, links.FacebookPage))
	}
	if len(parts) == 0 {
		return ""
	}
	return "<hr/><p>" + strings.Join(parts, " · ") + "</p>"
}

// DevtoFooter returns the Markdown footer linking back to the hub
func DevtoFooter(links PlatformLinks) string {
	var parts []string
	if links.BloggerPost != "" {
		parts = append(parts, fmt.Sprintf("*Originally published on [our blog](%s).*", links.BloggerPost))
	} else if links.BloggerHome != "" {
		parts = append(parts, fmt.Sprintf("*More articles on [our blog](%s).*", links.BloggerHome))
	}
	if links.TelegramChannel != "" {
		parts = append(parts, fmt.Sprintf("*Updates on [Telegram](%s).*", links.TelegramChannel))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\n---\n\n" + strings.Join(parts, "\n")
}

// TelegramMessage lays out the channel post: bold headline, teaser,
// read-more links to every hub, hashtags. Output is Telegram HTML, so
// user text is escaped.
func TelegramMessage(title, summary string, links PlatformLinks, tags []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(title))
	if summary != "" {
		b.WriteString(html.EscapeString(summary))
		b.WriteString("\n\n")
	}

	if links.BloggerPost != "" {
		fmt.Fprintf(&b, "📖 <a href=\"%s\">Read the full article</a>\n", links.BloggerPost)
	}
	if links.DevtoPost != "" {
		fmt.Fprintf(&b, "💻 <a href=\"%s\">English version on Dev.to</a>\n", links.DevtoPost)
	}
	if links.BloggerPost == "" && links.OriginalURL != "" {
		fmt.Fprintf(&b, "🔗 <a href=\"%s\">Source</a>\n", links.OriginalURL)
	}

	if tagLine := hashtagLine(tags); tagLine != "" {
		b.WriteString("\n" + tagLine)
	}
	return strings.TrimSpace(b.String())
}

// FacebookMessage lays out the page post: the storytelling body, then
// the hub link (or the source when the hub failed).
func FacebookMessage(body string, links PlatformLinks) (message, link string) {
	link = links.BloggerPost
	if link == "" {
		link = links.OriginalURL
	}
	message = strings.TrimSpace(body)
	if links.FacebookPage == "" && links.TelegramChannel != "" {
		message += "\n\n📣 " + links.TelegramChannel
	}
	return message, link
}

func hashtagLine(tags []string) string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		if t == "" {
			continue
		}
		out = append(out, "#"+strings.ReplaceAll(t, " ", "_"))
		if len(out) == 5 {
			break
		}
	}
	return strings.Join(out, " ")
}
