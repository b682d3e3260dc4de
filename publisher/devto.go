package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"contentorbit/config"
)

const devtoBaseURL = "https://dev.to"

// Devto publishes English articles through the Forem API
type Devto struct {
	apiKey  string
	org     string
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// DevtoArticle is one article payload
type DevtoArticle struct {
	Title        string
	BodyMarkdown string
	Tags         []string
	CanonicalURL string
	CoverImage   string
	Published    bool
}

// NewDevto builds the client from the devto config section
func NewDevto(cfg config.DevtoConfig) *Devto {
	return &Devto{
		apiKey:  cfg.APIKey,
		org:     cfg.Organization,
		baseURL: devtoBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
	}
}

// Publish creates the article and returns its URL and numeric ID
func (d *Devto) Publish(ctx context.Context, a DevtoArticle) (url string, id int64, err error) {
	if len(a.Tags) > config.DevtoMaxTags {
		a.Tags = a.Tags[:config.DevtoMaxTags]
	}

	article := map[string]any{
		"title":         a.Title,
		"body_markdown": a.BodyMarkdown,
		"published":     a.Published,
		"tags":          a.Tags,
	}
	if a.CanonicalURL != "" {
		article["canonical_url"] = a.CanonicalURL
	}
	if a.CoverImage != "" {
		article["main_image"] = a.CoverImage
	}
	if d.org != "" {
		article["organization_id"] = d.org
	}
	payload, err := json.Marshal(map[string]any{"article": article})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal devto article: %w", err)
	}

	err = d.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/api/articles", bytes.NewReader(payload))
		if err != nil {
			return Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", d.apiKey)

		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode == http.StatusCreated:
		case resp.StatusCode == http.StatusUnauthorized:
			return Permanent(fmt.Errorf("devto api key rejected (401)"))
		case resp.StatusCode == http.StatusUnprocessableEntity:
			return Permanent(fmt.Errorf("devto rejected the article (422): %s", truncateBody(body)))
		case retryableStatus(resp.StatusCode):
			return fmt.Errorf("devto returned %d: %s", resp.StatusCode, truncateBody(body))
		default:
			return Permanent(fmt.Errorf("devto returned %d: %s", resp.StatusCode, truncateBody(body)))
		}

		var created struct {
			ID  int64  `json:"id"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return Permanent(fmt.Errorf("failed to parse devto response: %w", err))
		}
		url, id = created.URL, created.ID
		return nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("devto publish failed: %w", err)
	}

	log.Printf("✅ Dev.to: published %q -> %s", a.Title, url)
	return url, id, nil
}

// TestConnection verifies the API key by fetching the account
func (d *Devto) TestConnection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/api/users/me", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("devto connection test failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("devto connection test returned %d", resp.StatusCode)
	}

	var me struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("failed to parse devto user: %w", err)
	}
	return me.Username, nil
}

func truncateBody(b []byte) string {
	const max = 300
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
