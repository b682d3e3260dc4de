package rssfeeds

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"contentorbit/types"
)

var imageClient = &http.Client{Timeout: 15 * time.Second}

// ResolveImage makes a best effort to attach an image URL to the
// article: first the extracted HTML, then the page's og:image tags.
// Missing images are not an error; social posts fall back to text.
func ResolveImage(ctx context.Context, article *types.Article) {
	if article.ImageURL != "" {
		return
	}
	if img := firstContentImage(article.FullContent); img != "" {
		article.ImageURL = img
		return
	}
	article.ImageURL = pageMetaImage(ctx, article.URL)
}

// firstContentImage returns the first plausible <img src> in the HTML
func firstContentImage(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || !strings.HasPrefix(src, "http") {
			return true
		}
		// skip tracking pixels and spacers
		if strings.Contains(src, "pixel") || strings.Contains(src, "1x1") {
			return true
		}
		found = src
		return false
	})
	return found
}

// pageMetaImage fetches the article page and reads og:image / twitter:image
func pageMetaImage(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ContentOrbit/1.0)")

	resp, err := imageClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	for _, selector := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.HasPrefix(content, "http") {
			return content
		}
	}
	return ""
}
