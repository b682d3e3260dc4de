package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"contentorbit/config"
)

func testBlogger(t *testing.T, handler http.HandlerFunc) *Blogger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewBlogger(context.Background(),
		config.BloggerConfig{BlogID: "b1"},
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewBlogger failed: %v", err)
	}
	b.retry = fastPolicy()
	return b
}

func TestBloggerPublish(t *testing.T) {
	b := testBlogger(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var post map[string]any
		json.NewDecoder(r.Body).Decode(&post)
		if post["title"] != "Hub Article" {
			t.Errorf("title = %v", post["title"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":  "post-1",
			"url": "https://blog.example.com/2026/08/hub-article.html",
		})
	})

	url, id, err := b.Publish(context.Background(), BloggerPost{
		Title:  "Hub Article",
		HTML:   "<p>body</p>",
		Labels: []string{"tech"},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if id != "post-1" || url == "" {
		t.Errorf("got %q / %q", url, id)
	}
}

func TestBloggerRequiresBlogID(t *testing.T) {
	if _, err := NewBlogger(context.Background(), config.BloggerConfig{}); err == nil {
		t.Fatal("expected error for missing blog id")
	}
}

func TestClassifyBloggerError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"nil passes through", nil, false},
		{"invalid_grant is permanent", errors.New(`oauth2: "invalid_grant" token expired`), true},
		{"401 is permanent", &googleapi.Error{Code: 401}, true},
		{"403 is permanent", &googleapi.Error{Code: 403}, true},
		{"500 is retryable", &googleapi.Error{Code: 500}, false},
		{"429 is retryable", &googleapi.Error{Code: 429}, false},
		{"network error is retryable", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyBloggerError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("nil in, %v out", got)
				}
				return
			}
			if IsPermanent(got) != tt.permanent {
				t.Errorf("IsPermanent = %v, want %v", IsPermanent(got), tt.permanent)
			}
		})
	}
}
