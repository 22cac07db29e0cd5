// Package suggest calls the generative-language API for gift ideas and
// festive greetings. Failures never leave this package: every call has a
// deterministic local fallback, so the reveal flow cannot stall on a slow
// or missing upstream.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/logger"

	"giftexchange/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client talks to the generative API. A zero API key disables upstream
// calls entirely and serves fallbacks.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewClient creates a suggestion client. model is the generative model
// name, e.g. "gemini-2.5-flash".
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FallbackIdeas is what GiftIdeas returns when the upstream is
// unconfigured or unavailable.
func FallbackIdeas() []models.GiftIdea {
	return []models.GiftIdea{
		{Title: "Cozy Scarf", Description: "A warm wool scarf for winter.", PriceRange: "$15 - $25"},
		{Title: "Gourmet Chocolate", Description: "A box of artisanal chocolates.", PriceRange: "$20 - $30"},
		{Title: "Holiday Mug", Description: "A festive ceramic mug.", PriceRange: "$10 - $15"},
	}
}

// FallbackGreeting is the local greeting used when the upstream is
// unavailable.
func FallbackGreeting(name string) string {
	return fmt.Sprintf("Ho Ho Ho! Merry Christmas, %s!", name)
}

// GiftIdeas suggests gifts for a receiver based on their wishlist text.
// Never returns an error; any upstream problem yields the fallback trio.
func (c *Client) GiftIdeas(ctx context.Context, receiverName, wishlist string) []models.GiftIdea {
	if c.apiKey == "" {
		return FallbackIdeas()
	}

	prompt := fmt.Sprintf(
		"Suggest 3 creative and thoughtful Christmas gift ideas for %s who is interested in: %s. "+
			"Keep the budget reasonable (under $100). "+
			"Return the response as a JSON array of objects with title, description, and priceRange.",
		receiverName, wishlist,
	)

	text, err := c.generate(ctx, prompt, true)
	if err != nil {
		logger.Warningf("Gift suggestion request failed, serving fallback: %v", err)
		return FallbackIdeas()
	}

	var ideas []models.GiftIdea
	if err := json.Unmarshal([]byte(text), &ideas); err != nil || len(ideas) == 0 {
		logger.Warningf("Unparseable gift suggestion response, serving fallback: %v", err)
		return FallbackIdeas()
	}
	return ideas
}

// Greeting returns a short festive greeting for a giver about to see their
// match. Never returns an error.
func (c *Client) Greeting(ctx context.Context, giverName string) string {
	if c.apiKey == "" {
		return FallbackGreeting(giverName)
	}

	prompt := fmt.Sprintf(
		"Write a very short, rhyming 2-line Christmas greeting for %s who is about to discover who they are being a Secret Santa for.",
		giverName,
	)

	text, err := c.generate(ctx, prompt, false)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			logger.Warningf("Greeting request failed, serving fallback: %v", err)
		}
		return FallbackGreeting(giverName)
	}
	return strings.TrimSpace(text)
}

// generateContent wire types, trimmed to the fields used.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if wantJSON {
		reqBody.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generative api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generative api returned %d: %s", resp.StatusCode, body)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
