package cta

import (
	"strings"
	"testing"
)

func TestTelegramMessageEscapesUserText(t *testing.T) {
	msg := TelegramMessage("Tags <b> & ampersands", "a < b", PlatformLinks{}, nil)
	if strings.Contains(msg, "Tags <b>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(msg, "&lt;b&gt;") || !strings.Contains(msg, "a &lt; b") {
		t.Errorf("escaping missing: %q", msg)
	}
}

func TestTelegramMessageLinks(t *testing.T) {
	links := PlatformLinks{
		BloggerPost: "https://blog.example.com/p/1",
		DevtoPost:   "https://dev.to/x/1",
		OriginalURL: "https://source.example.com/article",
	}
	msg := TelegramMessage("Title", "Summary", links, []string{"tech", "ai news"})

	if !strings.Contains(msg, links.BloggerPost) {
		t.Error("blogger link missing")
	}
	if !strings.Contains(msg, links.DevtoPost) {
		t.Error("devto link missing")
	}
	if strings.Contains(msg, links.OriginalURL) {
		t.Error("source link should be omitted when the hub link exists")
	}
	if !strings.Contains(msg, "#tech") || !strings.Contains(msg, "#ai_news") {
		t.Errorf("hashtags missing: %q", msg)
	}
}

func TestTelegramMessageFallsBackToSource(t *testing.T) {
	msg := TelegramMessage("Title", "", PlatformLinks{OriginalURL: "https://src.example.com"}, nil)
	if !strings.Contains(msg, "https://src.example.com") {
		t.Error("source fallback link missing when hub failed")
	}
}

func TestFacebookMessagePrefersHub(t *testing.T) {
	_, link := FacebookMessage("story", PlatformLinks{
		BloggerPost: "https://blog.example.com/p/2",
		OriginalURL: "https://src.example.com",
	})
	if link != "https://blog.example.com/p/2" {
		t.Errorf("link = %q, want hub", link)
	}

	_, link = FacebookMessage("story", PlatformLinks{OriginalURL: "https://src.example.com"})
	if link != "https://src.example.com" {
		t.Errorf("fallback link = %q, want source", link)
	}
}

func TestBloggerFooter(t *testing.T) {
	footer := BloggerFooter(PlatformLinks{
		DevtoPost:       "https://dev.to/x/1",
		TelegramChannel: "https://t.me/orbit",
	})
	if !strings.Contains(footer, "dev.to/x/1") || !strings.Contains(footer, "t.me/orbit") {
		t.Errorf("footer missing links: %q", footer)
	}

	if BloggerFooter(PlatformLinks{}) != "" {
		t.Error("empty links should produce no footer")
	}
}

func TestDevtoFooter(t *testing.T) {
	footer := DevtoFooter(PlatformLinks{BloggerPost: "https://blog.example.com/p/3"})
	if !strings.Contains(footer, "blog.example.com/p/3") {
		t.Errorf("footer = %q", footer)
	}
}
