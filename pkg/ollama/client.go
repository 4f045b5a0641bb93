// Package ollama is a minimal client for a local Ollama server, covering only
// the generate endpoint the summarizer needs.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/internal/common"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

// Client talks to one Ollama server. The connect and read budgets are split:
// a dead server should fail fast, a live generation may take minutes.
type Client struct {
	baseURL string
	cfg     models.OllamaConfig
	http    *http.Client
	ping    *http.Client
}

// NewClient builds a client from the pipeline configuration.
func NewClient(cfg models.OllamaConfig) *Client {
	connect := time.Duration(cfg.ConnectTimeoutSec) * time.Second
	if connect <= 0 {
		connect = 10 * time.Second
	}
	read := time.Duration(cfg.ReadTimeoutSec) * time.Second
	if read <= 0 {
		read = 300 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		cfg:     cfg,
		http: &http.Client{
			Timeout: read,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connect}).DialContext,
			},
		},
		ping: &http.Client{Timeout: 3 * time.Second},
	}
}

type generateRequest struct {
	Model     string          `json:"model"`
	Prompt    string          `json:"prompt"`
	Stream    bool            `json:"stream"`
	KeepAlive string          `json:"keep_alive,omitempty"`
	Options   generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64  `json:"temperature"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs one non-streaming completion and returns the raw response
// text. The configured stop token is not stripped here; callers decide how to
// post-process it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:     c.cfg.Model,
		Prompt:    prompt,
		Stream:    false,
		KeepAlive: c.cfg.KeepAlive,
		Options: generateOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.NumPredict,
		},
	}
	if c.cfg.Stop != "" {
		req.Options.Stop = []string{c.cfg.Stop}
	}
	return c.generate(ctx, req)
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return result.Response, nil
}

// Ping checks whether the server answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.ping.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", c.baseURL, err)
	}
	resp.Body.Close()
	return nil
}

// EnsureReady waits for the server to come up, polling with backoff. Useful
// when the server was just started out-of-band.
func (c *Client) EnsureReady(ctx context.Context) error {
	return common.Retry(ctx, 6, 2*time.Second, 8*time.Second, func() error {
		return c.Ping(ctx)
	})
}

// Warmup issues a tiny generation so the model is resident before the real
// work starts. Failure is returned but safe to ignore; generation will just
// pay the load cost on the first row.
func (c *Client) Warmup(ctx context.Context) error {
	req := generateRequest{
		Model:     c.cfg.Model,
		Prompt:    "OK\nFIN",
		Stream:    false,
		KeepAlive: c.cfg.KeepAlive,
		Options:   generateOptions{Temperature: 0, NumPredict: 5, Stop: []string{"FIN"}},
	}
	_, err := c.generate(ctx, req)
	return err
}
