// Package ollama is the upstream stream client: one streaming generation
// exchange against a local Ollama instance per call, exposed as a finite
// sequence of decoded events.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/config"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/ports"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

const (
	generatePath = "/api/generate"

	DefaultSetNoDelay         = true
	DefaultDisableCompression = true

	DefaultMaxIdleConns        = 20
	DefaultMaxIdleConnsPerHost = 5
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxLineSize         = 1024 * 1024
)

// generateRequest is the Ollama generation payload
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Client opens streaming generation exchanges. One exchange per Generate
// call; streams are not restartable.
type Client struct {
	httpClient *http.Client
	logger     logger.StyledLogger
	mu         sync.RWMutex
	cfg        config.OllamaConfig
}

func NewClient(cfg config.OllamaConfig, logger logger.StyledLogger) *Client {
	// TCP tuning for token streaming: no Nagle, no compression, pooled
	// connections for back-to-back generation requests
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  DefaultDisableCompression,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{
				Timeout:   cfg.ConnectionTimeout,
				KeepAlive: cfg.ConnectionKeepAlive,
			}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				if terr := tcpConn.SetNoDelay(DefaultSetNoDelay); terr != nil {
					logger.Warn("failed to set NoDelay", "err", terr)
				}
			}
			return conn, nil
		},
	}

	return &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Transport: transport},
	}
}

// Generate issues the streaming POST and hands back the response body as an
// event stream. The configured timeout covers the whole exchange, connect
// through last byte, via a context deadline the stream inherits. The stream
// also dies with the caller's context, which is how client disconnects unwind
// the backend connection.
func (c *Client) Generate(ctx context.Context, prompt string) (ports.EventStream, error) {
	cfg := c.config()

	payload, err := json.Marshal(generateRequest{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", domain.ErrUpstreamUnavailable, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultUpstreamTimeout
	}
	upstreamCtx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(upstreamCtx, http.MethodPost, cfg.URL+generatePath, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: building request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("opening generation stream", "model", cfg.Model, "url", cfg.URL, "timeout", timeout)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, classifyTransportError(upstreamCtx, err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: backend returned %s", domain.ErrUpstreamUnavailable, resp.Status)
	}

	c.logger.Debug("generation stream open", "connect_ms", time.Since(start).Milliseconds())

	maxLine := cfg.MaxLineSize
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}

	return newEventStream(upstreamCtx, resp.Body, cancel, maxLine), nil
}

func (c *Client) config() config.OllamaConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// UpdateConfig swaps backend settings on config reload. The transport keeps
// its original dial tuning; URL, model and budgets take effect on the next
// Generate call.
func (c *Client) UpdateConfig(cfg config.OllamaConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}
