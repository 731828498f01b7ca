package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Failure classes for generation calls. The orchestrator retries transport
// and rate-limit failures within its attempt cap; authentication failures are
// not going to improve on retry but still count as a failed attempt.
var (
	// ErrAuthentication covers missing or rejected credentials.
	ErrAuthentication = errors.New("generator authentication failed")
	// ErrRateLimited covers 429 responses.
	ErrRateLimited = errors.New("generator rate limited")
	// ErrEmptyResponse means the call succeeded but returned no usable text.
	ErrEmptyResponse = errors.New("generator returned no text")
)

// GenerateTests issues one generation call and returns the raw response
// text. The response may be arbitrarily malformed; repair is the caller's
// concern.
func (c *Client) GenerateTests(ctx context.Context, system, userPrompt string) (string, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", classify(err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// classify maps SDK errors onto the package's failure classes, preserving
// the underlying cause.
func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		case 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("generation call failed: %w", err)
}
