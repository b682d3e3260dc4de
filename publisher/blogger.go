package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	blogger "google.golang.org/api/blogger/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"contentorbit/config"
)

// Blogger publishes hub articles through the Blogger v3 API using a
// long-lived OAuth2 refresh token.
type Blogger struct {
	svc    *blogger.Service
	blogID string
	retry  RetryPolicy
}

// BloggerPost is one article to publish
type BloggerPost struct {
	Title   string
	HTML    string
	Labels  []string
	IsDraft bool
}

// NewBlogger builds the client. Extra options are for tests
// (custom endpoint, no auth).
func NewBlogger(ctx context.Context, cfg config.BloggerConfig, extra ...option.ClientOption) (*Blogger, error) {
	if cfg.BlogID == "" {
		return nil, fmt.Errorf("blogger blog_id is not configured")
	}

	opts := extra
	if len(opts) == 0 {
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{blogger.BloggerScope},
		}
		ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		opts = []option.ClientOption{option.WithTokenSource(ts)}
	}

	svc, err := blogger.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create blogger service: %w", err)
	}

	return &Blogger{svc: svc, blogID: cfg.BlogID, retry: DefaultRetryPolicy()}, nil
}

// Publish creates the post and returns its public URL and ID
func (b *Blogger) Publish(ctx context.Context, post BloggerPost) (url, id string, err error) {
	body := &blogger.Post{
		Title:   post.Title,
		Content: post.HTML,
		Labels:  post.Labels,
	}

	err = b.retry.Do(ctx, func() error {
		res, err := b.svc.Posts.Insert(b.blogID, body).IsDraft(post.IsDraft).Context(ctx).Do()
		if err != nil {
			return classifyBloggerError(err)
		}
		url, id = res.Url, res.Id
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("blogger publish failed: %w", err)
	}

	log.Printf("✅ Blogger: published %q -> %s", post.Title, url)
	return url, id, nil
}

// Update replaces the title and content of an existing post
func (b *Blogger) Update(ctx context.Context, postID string, post BloggerPost) error {
	body := &blogger.Post{Title: post.Title, Content: post.HTML, Labels: post.Labels}
	err := b.retry.Do(ctx, func() error {
		_, err := b.svc.Posts.Update(b.blogID, postID, body).Context(ctx).Do()
		return classifyBloggerError(err)
	})
	if err != nil {
		return fmt.Errorf("blogger update failed: %w", err)
	}
	return nil
}

// Delete removes a post
func (b *Blogger) Delete(ctx context.Context, postID string) error {
	err := b.retry.Do(ctx, func() error {
		return classifyBloggerError(b.svc.Posts.Delete(b.blogID, postID).Context(ctx).Do())
	})
	if err != nil {
		return fmt.Errorf("blogger delete failed: %w", err)
	}
	return nil
}

// TestConnection fetches the blog metadata
func (b *Blogger) TestConnection(ctx context.Context) (string, error) {
	blog, err := b.svc.Blogs.Get(b.blogID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("blogger connection test failed: %w", classifyBloggerError(err))
	}
	return blog.Name, nil
}

// classifyBloggerError marks auth failures permanent. invalid_grant
// means the refresh token was revoked and needs operator action.
func classifyBloggerError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "invalid_grant") {
		return Permanent(fmt.Errorf("refresh token revoked, re-authorization required: %w", err))
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && !retryableStatus(gerr.Code) {
		return Permanent(err)
	}
	return err
}
