package assistant

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

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrUnavailable marks failures of the text generation provider so handlers
// can map them to a localized user-facing message.
var ErrUnavailable = errors.New("assistant unavailable")

// Client talks to the external text generation service used for campaign
// copy. Calls are bounded by the configured timeout and retried on
// transient failures.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	log     *zap.SugaredLogger
}

func New(baseURL, apiKey string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		log:     log,
	}
}

type generateRequest struct {
	Prompt   string `json:"prompt"`
	Image    string `json:"image,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Format   string `json:"format,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("no provider configured: %w", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warnw("assistant request failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warnw("assistant returned error status", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: malformed response", ErrUnavailable)
	}
	if out.Text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return out.Text, nil
}

// GenerateText returns free-form text for a prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{Prompt: prompt})
}

// CampaignCopy is the structured output expected from the provider when
// drafting ad campaign content.
type CampaignCopy struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GenerateCampaignCopy asks the provider for a campaign name and description
// as JSON, optionally conditioned on an uploaded product image.
func (c *Client) GenerateCampaignCopy(ctx context.Context, prompt, imageBase64, mimeType string) (CampaignCopy, error) {
	text, err := c.generate(ctx, generateRequest{
		Prompt:   prompt,
		Image:    imageBase64,
		MimeType: mimeType,
		Format:   "json",
	})
	if err != nil {
		return CampaignCopy{}, err
	}

	// Some providers wrap JSON output in a markdown fence.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var cc CampaignCopy
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &cc); err != nil {
		return CampaignCopy{}, fmt.Errorf("%w: malformed campaign copy", ErrUnavailable)
	}
	if cc.Name == "" || cc.Description == "" {
		return CampaignCopy{}, fmt.Errorf("%w: incomplete campaign copy", ErrUnavailable)
	}
	return cc, nil
}
