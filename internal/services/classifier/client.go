// Package classifier wraps the remote vision feature-extraction API.
// The service scores visual symptoms (spots, wilting, mold and so on)
// from uploaded photos; callers treat its output as advisory and must
// tolerate full outages.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/services"
)

const defaultHTTPTimeout = 15 * time.Second

// Client talks to the vision feature-extraction endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the classifier client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a classifier client for the given endpoint.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type extractRequest struct {
	Crop   string         `json:"crop"`
	Images []extractImage `json:"images"`
}

type extractImage struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type extractResponse struct {
	Features map[string]float64 `json:"features"`
	Error    string             `json:"error,omitempty"`
}

// ExtractFeatures submits images for feature extraction and returns
// the scored features. Scores are clamped to [0, 1].
func (c *Client) ExtractFeatures(ctx context.Context, crop diagnose.Crop, images []diagnose.Image) (diagnose.VisionFeatures, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "vision", "extract",
			"classifier endpoint not configured", nil)
	}
	if len(images) == 0 {
		return diagnose.VisionFeatures{}, nil
	}

	payload := extractRequest{Crop: string(crop)}
	for _, img := range images {
		payload.Images = append(payload.Images, extractImage{
			Filename: img.Filename,
			Content:  base64.StdEncoding.EncodeToString(img.Data),
		})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "vision", "extract",
			"encode request", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/features")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "vision", "extract",
			"build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "vision", "extract",
			"new request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, services.Wrap(services.ErrTimeout, "vision", "extract",
				"request timed out", err)
		}
		return nil, services.Wrap(services.ErrUnavailable, "vision", "extract",
			"request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "extract",
			"read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "extract",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "extract",
			"decode response", err)
	}
	if parsed.Error != "" {
		return nil, services.Wrap(services.ErrUnavailable, "vision", "extract",
			"api error: "+parsed.Error, nil)
	}

	features := make(diagnose.VisionFeatures, len(parsed.Features))
	for name, score := range parsed.Features {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		features[name] = score
	}
	return features, nil
}

// HealthCheck verifies the endpoint answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "vision", "health",
			"classifier endpoint not configured", nil)
	}
	endpoint, err := url.JoinPath(c.baseURL, "/v1/health")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "vision", "health",
			"build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrInternal, "vision", "health",
			"new request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "vision", "health",
			"request failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrUnavailable, "vision", "health",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}

// isTimeout reports whether a transport failure was caused by a deadline
// rather than the endpoint being unreachable.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
