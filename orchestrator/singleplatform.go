package orchestrator

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"contentorbit/cta"
	"contentorbit/publisher"
	"contentorbit/rssfeeds"
	"contentorbit/types"
)

// RunSinglePlatform re-publishes one platform for an existing post,
// typically after a partial run. The source article is re-fetched,
// content is regenerated for that platform only and the stored post is
// updated in place.
func (o *Orchestrator) RunSinglePlatform(ctx context.Context, postID string, platform types.Platform) error {
	if !o.mu.TryLock() {
		return ErrAlreadyRunning
	}
	defer o.mu.Unlock()

	post, err := o.DB.GetPost(postID)
	if err != nil {
		return fmt.Errorf("failed to load post %s: %w", postID, err)
	}
	if post == nil {
		return fmt.Errorf("post %s not found", postID)
	}
	if slices.Contains(post.Platforms, platform) {
		return fmt.Errorf("post %s already published to %s", postID, platform)
	}

	article := &types.Article{
		Title:      post.Title,
		URL:        post.SourceURL,
		SourceFeed: post.SourceFeed,
		Language:   post.Language,
	}
	if err := rssfeeds.ExtractContent(article); err != nil {
		return fmt.Errorf("failed to re-fetch source article: %w", err)
	}
	rssfeeds.ResolveImage(ctx, article)

	cfg := o.Config()
	links := cta.FromConfig(cfg)
	links.OriginalURL = post.SourceURL
	links.BloggerPost = post.BloggerURL
	links.DevtoPost = post.DevtoURL

	log.Printf("🔄 Retrying %s for post %s", platform, postID)

	switch platform {
	case types.PlatformBlogger:
		if o.Blogger == nil {
			return fmt.Errorf("blogger is not configured")
		}
		title, body, err := o.Content.BloggerArticle(ctx, article)
		if err != nil {
			return err
		}
		url, id, err := o.Blogger.Publish(ctx, publisher.BloggerPost{
			Title: title, HTML: body + cta.BloggerFooter(links), Labels: postLabels(article),
		})
		if err != nil {
			return err
		}
		post.BloggerURL, post.BloggerPostID = url, id

	case types.PlatformDevto:
		if o.Devto == nil {
			return fmt.Errorf("dev.to is not configured")
		}
		title, markdown, tags, err := o.Content.DevtoArticle(ctx, article)
		if err != nil {
			return err
		}
		url, id, err := o.Devto.Publish(ctx, publisher.DevtoArticle{
			Title:        title,
			BodyMarkdown: markdown + cta.DevtoFooter(links),
			Tags:         tags,
			CanonicalURL: links.BloggerPost,
			CoverImage:   article.ImageURL,
			Published:    true,
		})
		if err != nil {
			return err
		}
		post.DevtoURL, post.DevtoID = url, id

	case types.PlatformTelegram:
		if o.Telegram == nil {
			return fmt.Errorf("telegram is not configured")
		}
		title, summary, err := o.socialPair(ctx, article)
		if err != nil {
			return err
		}
		msg := cta.TelegramMessage(title, summary, links, postLabels(article))
		id, err := o.Telegram.PublishPost(ctx, msg, article.ImageURL)
		if err != nil {
			return err
		}
		post.TelegramMessageID = id

	case types.PlatformFacebook:
		if o.Facebook == nil {
			return fmt.Errorf("facebook is not configured")
		}
		body, err := o.Content.FacebookPost(ctx, article)
		if err != nil {
			var title, summary string
			title, summary, err = o.socialPair(ctx, article)
			if err != nil {
				return err
			}
			body = title + "\n\n" + summary
		}
		message, link := cta.FacebookMessage(body, links)
		var postFBID string
		if link == "" && article.ImageURL != "" {
			postFBID, err = o.Facebook.PublishPhoto(ctx, article.ImageURL, message)
		} else {
			postFBID, err = o.Facebook.PublishLink(ctx, message, link)
		}
		if err != nil {
			return err
		}
		post.FacebookPostID = postFBID

	default:
		return fmt.Errorf("unknown platform %q", platform)
	}

	post.Platforms = append(post.Platforms, platform)
	post.Status = types.StatusPublished
	if len(post.Platforms) < enabledPlatformCount(cfg.Schedule) {
		post.Status = types.StatusPartial
	}
	post.ErrorMessage = ""
	if err := o.DB.SavePost(post); err != nil {
		return fmt.Errorf("published to %s but failed to update record: %w", platform, err)
	}

	o.logEvent("info", "pipeline", "single platform retry succeeded", map[string]any{
		"post_id": postID, "platform": platform,
	})
	return nil
}

func (o *Orchestrator) socialPair(ctx context.Context, article *types.Article) (title, summary string, err error) {
	title, err = o.Content.SocialTitle(ctx, article)
	if err != nil {
		return "", "", err
	}
	summary, err = o.Content.SocialSummary(ctx, article)
	if err != nil {
		return "", "", err
	}
	return title, summary, nil
}

// ConnectionStatus is the outcome of probing one platform
type ConnectionStatus struct {
	Configured bool   `json:"configured"`
	OK         bool   `json:"ok"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// TestAllConnections probes every configured platform in parallel
func (o *Orchestrator) TestAllConnections(ctx context.Context) map[string]ConnectionStatus {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	type probe struct {
		name string
		fn   func(context.Context) (string, error)
	}
	var probes []probe
	if o.Blogger != nil {
		probes = append(probes, probe{"blogger", o.Blogger.TestConnection})
	}
	if o.Devto != nil {
		probes = append(probes, probe{"devto", o.Devto.TestConnection})
	}
	if o.Telegram != nil {
		probes = append(probes, probe{"telegram", o.Telegram.TestConnection})
	}
	if o.Facebook != nil {
		probes = append(probes, probe{"facebook", o.Facebook.TestConnection})
	}

	results := make(map[string]ConnectionStatus, 4)
	for _, name := range []string{"blogger", "devto", "telegram", "facebook"} {
		results[name] = ConnectionStatus{Configured: false}
	}

	type outcome struct {
		name   string
		status ConnectionStatus
	}
	ch := make(chan outcome, len(probes))
	for _, p := range probes {
		go func(p probe) {
			detail, err := p.fn(ctx)
			st := ConnectionStatus{Configured: true, OK: err == nil, Detail: detail}
			if err != nil {
				st.Error = err.Error()
			}
			ch <- outcome{p.name, st}
		}(p)
	}
	for range probes {
		out := <-ch
		results[out.name] = out.status
	}
	return results
}
