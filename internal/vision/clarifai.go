// Package vision wraps the Clarifai model-outputs REST API. Only the thin
// call surface the service needs is modeled; responses are relayed to the
// client mostly as-is.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// statusSuccess is Clarifai's "request succeeded" status code.
const statusSuccess = 10000

// ErrUpstream indicates the vision API rejected the call or returned a
// non-success status.
var ErrUpstream = errors.New("vision api error")

// Status is Clarifai's per-response status envelope.
type Status struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// Response is the relevant subset of a model-outputs response. Outputs is
// kept raw so region/concept payloads reach the client unmodified.
type Response struct {
	Status  Status          `json:"status"`
	Outputs json.RawMessage `json:"outputs"`
}

// Client calls the Clarifai REST API with a personal access token.
type Client struct {
	http    *http.Client
	baseURL string
	pat     string
	userID  string
	appID   string
	modelID string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a Clarifai client for one user/app/model triple.
func NewClient(baseURL, pat, userID, appID, modelID string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		pat:     pat,
		userID:  userID,
		appID:   appID,
		modelID: modelID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type detectRequest struct {
	Inputs []detectInput `json:"inputs"`
}

type detectInput struct {
	Data struct {
		Image struct {
			URL               string `json:"url"`
			AllowDuplicateURL bool   `json:"allow_duplicate_url"`
		} `json:"image"`
	} `json:"data"`
}

// DetectFaces runs the configured model against the image URL.
func (c *Client) DetectFaces(ctx context.Context, imageURL string) (*Response, error) {
	var in detectInput
	in.Data.Image.URL = imageURL
	in.Data.Image.AllowDuplicateURL = true

	body, err := json.Marshal(detectRequest{Inputs: []detectInput{in}})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/users/%s/apps/%s/models/%s/outputs",
		c.baseURL, c.userID, c.appID, c.modelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.pat)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	if httpResp.StatusCode != http.StatusOK || resp.Status.Code != statusSuccess {
		return nil, fmt.Errorf("%w: status %d (%s)", ErrUpstream, resp.Status.Code, resp.Status.Description)
	}

	return &resp, nil
}
