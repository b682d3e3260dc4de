package ai

import (
	"context"
	"fmt"

	"contentorbit/config"
	"contentorbit/types"
)

// ContentGenerator produces every platform artifact for one article
type ContentGenerator struct {
	gen     TextGenerator
	brand   config.BrandConfig
	prompts config.Prompts
}

// NewContentGenerator wires a text generator with brand and prompts
func NewContentGenerator(gen TextGenerator, brand config.BrandConfig, prompts config.Prompts) *ContentGenerator {
	return &ContentGenerator{gen: gen, brand: brand, prompts: prompts}
}

// BloggerArticle generates the hub article in the brand's primary
// language, returning a standalone title and HTML body.
func (c *ContentGenerator) BloggerArticle(ctx context.Context, article *types.Article) (title, html string, err error) {
	preamble := BuildPreamble(c.brand, c.brand.PrimaryLanguage)
	raw, err := c.gen.Generate(ctx, preamble, RenderPrompt(c.prompts.BloggerArticle, article))
	if err != nil {
		return "", "", fmt.Errorf("blogger article generation failed: %w", err)
	}
	title, html = ExtractHTMLTitle(raw, article.Title)
	return title, html, nil
}

// DevtoArticle generates the English technical article with tags
func (c *ContentGenerator) DevtoArticle(ctx context.Context, article *types.Article) (title, markdown string, tags []string, err error) {
	preamble := BuildPreamble(c.brand, "en")
	raw, err := c.gen.Generate(ctx, preamble, RenderPrompt(c.prompts.DevtoArticle, article))
	if err != nil {
		return "", "", nil, fmt.Errorf("devto article generation failed: %w", err)
	}
	title, markdown = ExtractMarkdownTitle(raw, article.Title)
	tags = KeywordTags(article.Title, article.Categories, config.DevtoMaxTags)
	return title, markdown, tags, nil
}

// SocialTitle generates the short headline shared by Telegram and
// Facebook, in the brand's primary language.
func (c *ContentGenerator) SocialTitle(ctx context.Context, article *types.Article) (string, error) {
	preamble := BuildPreamble(c.brand, c.brand.PrimaryLanguage)
	raw, err := c.gen.Generate(ctx, preamble, RenderPrompt(c.prompts.SocialTitle, article))
	if err != nil {
		return "", fmt.Errorf("social title generation failed: %w", err)
	}
	return CleanHeadline(raw, 120), nil
}

// SocialSummary generates the 2-3 sentence teaser
func (c *ContentGenerator) SocialSummary(ctx context.Context, article *types.Article) (string, error) {
	preamble := BuildPreamble(c.brand, c.brand.PrimaryLanguage)
	raw, err := c.gen.Generate(ctx, preamble, RenderPrompt(c.prompts.SocialSummary, article))
	if err != nil {
		return "", fmt.Errorf("social summary generation failed: %w", err)
	}
	return StripCodeFences(raw), nil
}

// FacebookPost generates the storytelling body for the Facebook page
func (c *ContentGenerator) FacebookPost(ctx context.Context, article *types.Article) (string, error) {
	preamble := BuildPreamble(c.brand, c.brand.PrimaryLanguage)
	raw, err := c.gen.Generate(ctx, preamble, RenderPrompt(c.prompts.FacebookPost, article))
	if err != nil {
		return "", fmt.Errorf("facebook post generation failed: %w", err)
	}
	return StripCodeFences(raw), nil
}
