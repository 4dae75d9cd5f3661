package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/azeta/zerozerobot/internal/pkg/config"
)

// ErrAllEndpointsFailed is returned when every live-path candidate failed,
// directly and (where attempted) through the proxy. Never fatal: the
// scheduler logs it and waits for the next tick.
var ErrAllEndpointsFailed = errors.New("upstream: all endpoints failed")

// Client fetches live events from the upstream API. The live-match path has
// moved over time, so several candidates are tried in order; the first one
// that answers 200 with a parseable envelope wins. A 403 on a candidate is
// retried once through a read-through text proxy before moving on.
type Client struct {
	cfg        config.UpstreamConfig
	direct     *http.Client
	proxied    *http.Client
	onFallback func() // optional, counted by the scheduler's stats
}

func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		cfg:     cfg,
		direct:  &http.Client{Timeout: cfg.Timeout.Std()},
		proxied: &http.Client{Timeout: cfg.ProxyTimeout.Std()},
	}
}

// OnFallback registers a hook invoked every time the proxy transport is used.
func (c *Client) OnFallback(fn func()) { c.onFallback = fn }

// FetchLive returns the current live matches. Network errors, bad statuses
// and unparseable bodies are soft failures per endpoint; only when every
// candidate is exhausted does it return an error wrapping
// ErrAllEndpointsFailed.
func (c *Client) FetchLive(ctx context.Context) ([]RawMatch, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	for _, path := range c.cfg.LivePaths {
		target := base + path

		matches, status, err := c.tryDirect(ctx, target)
		if err == nil {
			return matches, nil
		}
		slog.Warn("upstream fetch attempt failed",
			"endpoint", target, "status", status, "fallback", false, "error", err)

		if status != http.StatusForbidden || c.cfg.ProxyPrefix == "" {
			continue
		}

		if c.onFallback != nil {
			c.onFallback()
		}
		matches, status, err = c.tryProxied(ctx, target)
		if err == nil {
			return matches, nil
		}
		slog.Warn("upstream fetch attempt failed",
			"endpoint", target, "status", status, "fallback", true, "error", err)
	}
	return nil, fmt.Errorf("%w: tried %d paths", ErrAllEndpointsFailed, len(c.cfg.LivePaths))
}

func (c *Client) tryDirect(ctx context.Context, target string) ([]RawMatch, int, error) {
	body, status, err := c.get(ctx, c.direct, target)
	if err != nil {
		return nil, status, err
	}
	matches, err := parseEnvelope(body)
	if err != nil {
		return nil, status, err
	}
	return matches, status, nil
}

// tryProxied fetches the target through the read-through proxy. The proxy
// usually wraps the upstream JSON as a string inside {data:{content}}, but
// sometimes passes the JSON through untouched; both are accepted.
func (c *Client) tryProxied(ctx context.Context, target string) ([]RawMatch, int, error) {
	proxyURL := c.cfg.ProxyPrefix + url.QueryEscape(target)
	body, status, err := c.get(ctx, c.proxied, proxyURL)
	if err != nil {
		return nil, status, err
	}

	if matches, err := parseEnvelope(body); err == nil {
		return matches, status, nil
	}

	var wrapper struct {
		Data struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, status, fmt.Errorf("proxy response not an envelope: %w", err)
	}
	if wrapper.Data.Content == "" {
		return nil, status, errors.New("proxy response has no content")
	}
	matches, err := parseEnvelope([]byte(wrapper.Data.Content))
	if err != nil {
		return nil, status, fmt.Errorf("proxy content: %w", err)
	}
	return matches, status, nil
}

func (c *Client) get(ctx context.Context, client *http.Client, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a preview for the log, the rest is discarded.
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, preview)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// parseEnvelope accepts both top-level keys the upstream has used for the
// live list: {events: [...]} and {results: [...]}.
func parseEnvelope(body []byte) ([]RawMatch, error) {
	var envelope struct {
		Events  []RawMatch `json:"events"`
		Results []RawMatch `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf("unmarshal envelope: %w (body preview: %s)", err, preview)
	}
	if envelope.Events != nil {
		return envelope.Events, nil
	}
	if envelope.Results != nil {
		return envelope.Results, nil
	}
	return nil, errors.New("envelope has neither events nor results")
}
