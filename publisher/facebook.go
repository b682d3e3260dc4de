package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contentorbit/config"
)

const (
	facebookBaseURL    = "https://graph.facebook.com"
	facebookAPIVersion = "v18.0"
)

// Facebook posts to the page through the Graph API
type Facebook struct {
	pageID  string
	token   string
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// NewFacebook builds the client from the facebook config section
func NewFacebook(cfg config.FacebookConfig) *Facebook {
	return &Facebook{
		pageID:  cfg.PageID,
		token:   cfg.PageAccessToken,
		baseURL: facebookBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
	}
}

type facebookError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// PublishLink posts a message with an attached link to the page feed
func (f *Facebook) PublishLink(ctx context.Context, message, link string) (string, error) {
	params := url.Values{"message": {message}}
	if link != "" {
		params.Set("link", link)
	}
	return f.post(ctx, "feed", params)
}

// PublishPhoto posts a photo by URL with a caption
func (f *Facebook) PublishPhoto(ctx context.Context, photoURL, caption string) (string, error) {
	params := url.Values{
		"url":     {photoURL},
		"message": {caption},
	}
	return f.post(ctx, "photos", params)
}

// TestConnection fetches the page name
func (f *Facebook) TestConnection(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?fields=name&access_token=%s",
		f.baseURL, facebookAPIVersion, f.pageID, url.QueryEscape(f.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("facebook connection test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var fbErr facebookError
		json.NewDecoder(resp.Body).Decode(&fbErr)
		return "", fmt.Errorf("facebook connection test returned %d: %s", resp.StatusCode, fbErr.Error.Message)
	}
	var page struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return "", fmt.Errorf("failed to parse page info: %w", err)
	}
	return page.Name, nil
}

func (f *Facebook) post(ctx context.Context, edge string, params url.Values) (string, error) {
	params.Set("access_token", f.token)
	endpoint := fmt.Sprintf("%s/%s/%s/%s", f.baseURL, facebookAPIVersion, f.pageID, edge)

	var postID string
	err := f.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
			strings.NewReader(params.Encode()))
		if err != nil {
			return Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var fbErr facebookError
			json.NewDecoder(resp.Body).Decode(&fbErr)
			err := fmt.Errorf("facebook %s returned %d (code %d): %s",
				edge, resp.StatusCode, fbErr.Error.Code, fbErr.Error.Message)
			switch fbErr.Error.Code {
			case 190: // token expired or invalidated
				return Permanent(fmt.Errorf("page token expired, re-authorization required: %w", err))
			case 200: // missing permission
				return Permanent(err)
			}
			if retryableStatus(resp.StatusCode) {
				return err
			}
			return Permanent(err)
		}

		var created struct {
			ID     string `json:"id"`
			PostID string `json:"post_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return Permanent(fmt.Errorf("failed to parse facebook response: %w", err))
		}
		postID = created.PostID
		if postID == "" {
			postID = created.ID
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("facebook publish failed: %w", err)
	}

	log.Printf("✅ Facebook: published to /%s -> %s", edge, postID)
	return postID, nil
}
