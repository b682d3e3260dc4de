package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contentorbit/config"
)

func testDevto(t *testing.T, handler http.HandlerFunc) *Devto {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d := NewDevto(config.DevtoConfig{APIKey: "test-key"})
	d.baseURL = srv.URL
	d.retry = fastPolicy()
	return d
}

func TestDevtoPublish(t *testing.T) {
	var gotPayload map[string]map[string]any
	d := testDevto(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/articles" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "test-key" {
			t.Errorf("api-key header = %q", r.Header.Get("api-key"))
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 123, "url": "https://dev.to/orbit/post-1"})
	})

	url, id, err := d.Publish(context.Background(), DevtoArticle{
		Title:        "Post",
		BodyMarkdown: "body",
		Tags:         []string{"go", "ai", "news", "tech", "extra"},
		CanonicalURL: "https://blog.example.com/p/1",
		Published:    true,
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if url != "https://dev.to/orbit/post-1" || id != 123 {
		t.Errorf("got %q / %d", url, id)
	}

	article := gotPayload["article"]
	if article["canonical_url"] != "https://blog.example.com/p/1" {
		t.Errorf("canonical_url = %v", article["canonical_url"])
	}
	tags, _ := article["tags"].([]any)
	if len(tags) != 4 {
		t.Errorf("tags = %v, want trimmed to 4", tags)
	}
}

func TestDevtoPublish422IsPermanent(t *testing.T) {
	calls := 0
	d := testDevto(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"tag is invalid"}`))
	})

	_, _, err := d.Publish(context.Background(), DevtoArticle{Title: "x", BodyMarkdown: "y"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (422 is not retryable)", calls)
	}
}

func TestDevtoPublishRetriesServerErrors(t *testing.T) {
	calls := 0
	d := testDevto(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "url": "https://dev.to/x"})
	})

	_, id, err := d.Publish(context.Background(), DevtoArticle{Title: "x", BodyMarkdown: "y"})
	if err != nil {
		t.Fatalf("Publish failed after retries: %v", err)
	}
	if id != 7 || calls != 3 {
		t.Errorf("id = %d, calls = %d", id, calls)
	}
}

func TestDevtoTestConnection(t *testing.T) {
	d := testDevto(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"username": "orbitbot"})
	})

	username, err := d.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if username != "orbitbot" {
		t.Errorf("username = %q", username)
	}
}
