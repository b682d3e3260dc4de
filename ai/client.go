// Package ai turns a source article into platform-ready content using
// the Cohere chat API, with operator-editable prompts and brand voice.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"contentorbit/config"
)

// TextGenerator produces one completion for a prompt under a persona
type TextGenerator interface {
	Generate(ctx context.Context, preamble, prompt string) (string, error)
}

// CohereGenerator implements TextGenerator over the Cohere chat API
type CohereGenerator struct {
	client      *cohereclient.Client
	model       string
	temperature float64
	maxTokens   int
	retries     int
}

// NewCohereGenerator builds a generator from the cohere config section
func NewCohereGenerator(cfg config.CohereConfig) *CohereGenerator {
	return &CohereGenerator{
		client:      cohereclient.NewClient(cohereclient.WithToken(cfg.APIKey)),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		retries:     3,
	}
}

// Generate runs the chat call with exponential-backoff retries
func (g *CohereGenerator) Generate(ctx context.Context, preamble, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<attempt) * time.Second
			log.Printf("🔄 Retrying generation in %s (attempt %d/%d)", delay, attempt+1, g.retries)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := g.generateOnce(ctx, preamble, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", g.retries, lastErr)
}

func (g *CohereGenerator) generateOnce(ctx context.Context, preamble, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req := &cohere.ChatRequest{
		Message:     prompt,
		Model:       cohere.String(g.model),
		Temperature: cohere.Float64(g.temperature),
		MaxTokens:   cohere.Int(g.maxTokens),
	}
	if preamble != "" {
		req.Preamble = cohere.String(preamble)
	}

	resp, err := g.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("cohere returned empty text")
	}
	return resp.Text, nil
}
