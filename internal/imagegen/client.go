package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/digkill/AstroImages/internal/config"
)

// syncURLPaths are the locations OpenAI compatible gateways put the image URL at.
var syncURLPaths = []string{"data.0.url", "output.0", "images.0.url"}

type Client struct {
	provider     string
	apiKey       string
	endpoint     string
	defaultModel string
	defaultSize  string
	httpClient   *http.Client
	log          *slog.Logger

	maxAttempts  int
	pollInterval time.Duration
}

type GenerateOptions struct {
	Prompt string
	Model  string
	Size   string
}

type Image struct {
	URL   string
	Model string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		provider:     cfg.ImageGenProvider,
		apiKey:       cfg.ImageGenAPIKey,
		endpoint:     strings.TrimRight(cfg.ImageGenEndpoint, "/"),
		defaultModel: cfg.ImageGenModel,
		defaultSize:  cfg.ImageGenSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:          log,
		maxAttempts:  60,
		pollInterval: 2 * time.Second,
	}
}

// Generate asks the provider for one image and returns the URL it was
// published at. The bytes are fetched separately with Download.
func (c *Client) Generate(ctx context.Context, opts GenerateOptions) (*Image, error) {
	if strings.TrimSpace(opts.Prompt) == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}
	if opts.Model == "" {
		opts.Model = c.defaultModel
	}
	if opts.Size == "" {
		opts.Size = c.defaultSize
	}

	switch c.provider {
	case config.ProviderKIE:
		return c.generateTask(ctx, opts)
	default:
		return c.generateSync(ctx, opts)
	}
}

// generateSync calls an OpenAI compatible images endpoint.
func (c *Client) generateSync(ctx context.Context, opts GenerateOptions) (*Image, error) {
	payload := map[string]any{
		"prompt": opts.Prompt,
		"model":  opts.Model,
		"n":      1,
		"size":   opts.Size,
	}

	c.log.Info("requesting image generation", "url", c.endpoint, "model", opts.Model)

	rawBody, err := c.postJSON(ctx, c.endpoint, payload)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(rawBody) {
		return nil, fmt.Errorf("decode generation response: invalid json (body=%s)", truncateBody(rawBody))
	}
	imageURL := firstURL(gjson.ParseBytes(rawBody), syncURLPaths...)
	if imageURL == "" {
		return nil, fmt.Errorf("no image url in generation response (body=%s)", truncateBody(rawBody))
	}

	return &Image{URL: imageURL, Model: opts.Model}, nil
}

// generateTask creates an asynchronous task and polls it until it settles.
func (c *Client) generateTask(ctx context.Context, opts GenerateOptions) (*Image, error) {
	payload := map[string]any{
		"model": opts.Model,
		"input": map[string]any{
			"prompt":        opts.Prompt,
			"aspect_ratio":  aspectRatio(opts.Size),
			"output_format": "png",
		},
	}

	taskID, err := c.createTask(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	imageURL, err := c.pollTaskStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &Image{URL: imageURL, Model: opts.Model}, nil
}

func (c *Client) createTask(ctx context.Context, payload map[string]any) (string, error) {
	fullURL, err := c.resolve("/api/v1/jobs/createTask", nil)
	if err != nil {
		return "", err
	}

	c.log.Info("creating generation task", "url", fullURL, "model", payload["model"])

	rawBody, err := c.postJSON(ctx, fullURL, payload)
	if err != nil {
		return "", err
	}

	var createResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &createResp); err != nil {
		return "", fmt.Errorf("decode create task response: %w (body=%s)", err, truncateBody(rawBody))
	}
	if createResp.Code != http.StatusOK {
		return "", fmt.Errorf("create task failed: code=%d msg=%s", createResp.Code, createResp.Msg)
	}
	if createResp.Data.TaskID == "" {
		return "", fmt.Errorf("empty taskId in response")
	}

	c.log.Info("generation task created", "task_id", createResp.Data.TaskID)
	return createResp.Data.TaskID, nil
}

func (c *Client) pollTaskStatus(ctx context.Context, taskID string) (string, error) {
	params := url.Values{}
	params.Set("taskId", taskID)
	fullURL, err := c.resolve("/api/v1/jobs/recordInfo", params)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		rawBody, err := c.get(ctx, fullURL)
		if err != nil {
			return "", err
		}

		var statusResp struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
			Data struct {
				State      string `json:"state"`
				ResultJSON string `json:"resultJson"`
				FailCode   string `json:"failCode"`
				FailMsg    string `json:"failMsg"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rawBody, &statusResp); err != nil {
			return "", fmt.Errorf("decode status response: %w (body=%s)", err, truncateBody(rawBody))
		}
		if statusResp.Code != http.StatusOK {
			return "", fmt.Errorf("get task status failed: code=%d msg=%s", statusResp.Code, statusResp.Msg)
		}

		switch statusResp.Data.State {
		case "success":
			if !gjson.Valid(statusResp.Data.ResultJSON) {
				return "", fmt.Errorf("parse resultJson: invalid json")
			}
			imageURL := firstURL(gjson.Parse(statusResp.Data.ResultJSON), "resultUrls.0")
			if imageURL == "" {
				return "", fmt.Errorf("no resultUrls in result")
			}
			c.log.Info("generation task completed", "task_id", taskID, "attempt", attempt+1)
			return imageURL, nil

		case "fail":
			failMsg := statusResp.Data.FailMsg
			if failMsg == "" {
				failMsg = "unknown error"
			}
			c.log.Error("generation task failed", "task_id", taskID, "fail_code", statusResp.Data.FailCode, "fail_msg", failMsg)
			return "", fmt.Errorf("task failed: %s (code: %s)", failMsg, statusResp.Data.FailCode)

		case "waiting", "generating", "processing", "queued", "queueing":
			if attempt%10 == 0 {
				c.log.Info("generation task waiting", "task_id", taskID, "attempt", attempt+1, "max_attempts", c.maxAttempts)
			}
			if attempt < c.maxAttempts-1 {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(c.pollInterval):
				}
			}

		default:
			return "", fmt.Errorf("unknown task state: %s", statusResp.Data.State)
		}
	}

	return "", fmt.Errorf("task timeout after %d attempts", c.maxAttempts)
}

// Download fetches the generated asset from the provider's URL.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download image: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("download image: empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func (c *Client) postJSON(ctx context.Context, fullURL string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("image provider request failed", "status", resp.StatusCode, "url", req.URL.String(), "body", truncateBody(rawBody))
		return nil, fmt.Errorf("image provider error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}
	return rawBody, nil
}

func (c *Client) resolve(path string, params url.Values) (string, error) {
	baseURL, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if params != nil {
		ref.RawQuery = params.Encode()
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// aspectRatio converts a WxH size into the ratio notation task providers use.
func firstURL(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := strings.TrimSpace(doc.Get(p).String()); v != "" {
			return v
		}
	}
	return ""
}

func aspectRatio(size string) string {
	var w, h int
	if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return "1:1"
	}
	d := gcd(w, h)
	return fmt.Sprintf("%d:%d", w/d, h/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
