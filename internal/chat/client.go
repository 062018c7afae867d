// Package chat implements the proxy to the upstream generative-AI service
// that powers the site's Elden Ring assistant.
//
// The proxy is a strict request/response passthrough: one user message in,
// one assistant message out. Upstream failures surface as ErrUpstream and
// are never echoed to clients with internal detail.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second
)

// systemInstruction keeps the assistant scoped to Elden Ring topics.
const systemInstruction = `You are an Elden Ring expert assistant. You specialize in:
1. Elden Ring build recommendations (including stats, weapons, armor, talismans)
2. Game mechanics and strategies
3. Boss fight strategies
4. Item locations and quest guides
5. PvP and PvE strategies

Only provide information related to Elden Ring. If asked about other games, politely remind the user that you are an Elden Ring specialist.
When recommending builds, always include:
- Required stats
- Recommended weapons and their upgrade paths
- Armor recommendations
- Talisman choices
- Spell/incantation recommendations if applicable
- Basic combat strategy

With your respond format:
1. Use multiple paragraphs if the sentence is extensively long
2. Use dotpoints and other listings if you need to`

// ErrUpstream reports a failure talking to the generative-AI service.
var ErrUpstream = errors.New("upstream chat service error")

// Client calls the generateContent endpoint of the upstream service.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithModel overrides the model name.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient constructs a Client. The API key is required.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: missing API key")
	}

	c := &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"system_instruction,omitempty"`
	Contents          []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Send forwards message to the upstream model and returns the assistant's
// reply text.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("chat: empty message")
	}

	body, err := json.Marshal(generateRequest{
		SystemInstruction: &generateContent{Parts: []generatePart{{Text: systemInstruction}}},
		Contents: []generateContent{
			{Role: "user", Parts: []generatePart{{Text: message}}},
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a bounded amount so the connection can be reused; the body
		// content is upstream detail and must not reach clients.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
