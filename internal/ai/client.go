package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"waste-analytics-service/internal/metrics"
)

const (
	reportPath = "/v1/report"
	chatPath   = "/v1/chat"
	routesPath = "/v1/routes"

	streamDone = "[DONE]"
)

type Options struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// HTTPClient talks to the AI collaborator over HTTP.
type HTTPClient struct {
	opts    Options
	http    *http.Client
	metrics *metrics.Collector
	log     zerolog.Logger
}

func NewHTTPClient(opts Options, client *http.Client, m *metrics.Collector, log zerolog.Logger) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	return &HTTPClient{
		opts:    opts,
		http:    client,
		metrics: m,
		log:     log.With().Str("component", "ai").Logger(),
	}
}

func (c *HTTPClient) Stream(ctx context.Context, req ReportRequest) (<-chan Chunk, error) {
	body := struct {
		Model string `json:"model,omitempty"`
		ReportPayload
	}{Model: c.opts.Model, ReportPayload: BuildReportPayload(req)}
	return c.stream(ctx, "report", reportPath, body)
}

func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (<-chan Chunk, error) {
	body := struct {
		Model string `json:"model,omitempty"`
		ChatRequest
	}{Model: c.opts.Model, ChatRequest: req}
	return c.stream(ctx, "chat", chatPath, body)
}

func (c *HTTPClient) SuggestRoutes(ctx context.Context, req RouteRequest) (*RouteOptions, error) {
	payload, err := encode(struct {
		Model string `json:"model,omitempty"`
		RouteRequest
	}{Model: c.opts.Model, RouteRequest: req})
	if err != nil {
		return nil, fmt.Errorf("encode route request: %w", err)
	}

	var result RouteOptions
	err = backoff.Retry(
		func() error {
			resp, err := c.post(ctx, routesPath, payload, "application/json")
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if err := upstreamStatus(resp); err != nil {
				if resp.StatusCode < 500 {
					return backoff.Permanent(err)
				}
				return err
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: decode routes: %v", ErrUpstream, err))
			}
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.opts.MaxRetries)),
			ctx,
		),
	)
	c.record("routes", err)
	if err != nil {
		return nil, err
	}
	if result.Routes == nil {
		result.Routes = []RouteOption{}
	}
	return &result, nil
}

func (c *HTTPClient) stream(ctx context.Context, kind, path string, body any) (<-chan Chunk, error) {
	payload, err := encode(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", kind, err)
	}

	resp, err := c.post(ctx, path, payload, "text/event-stream")
	if err != nil {
		c.record(kind, err)
		return nil, err
	}
	if err := upstreamStatus(resp); err != nil {
		_ = resp.Body.Close()
		c.record(kind, err)
		return nil, err
	}

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		defer func() { _ = resp.Body.Close() }()

		err := ReadEvents(resp.Body, func(text string) bool {
			select {
			case ch <- Chunk{Text: text}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		c.record(kind, err)
		if err != nil {
			c.log.Warn().Err(err).Str("kind", kind).Msg("ai stream interrupted")
			select {
			case ch <- Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

// ReadEvents parses `data:` lines until the [DONE] marker or EOF, calling
// emit for every text fragment. emit returning false stops reading.
func ReadEvents(r io.Reader, emit func(string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == streamDone {
			return nil
		}
		if data == "" {
			continue
		}

		var event struct {
			Text  string `json:"text"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		if event.Error != "" {
			return fmt.Errorf("%w: %s", ErrUpstream, event.Error)
		}
		if event.Text == "" {
			continue
		}
		if !emit(event.Text) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %v", ErrUpstream, err)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload []byte, accept string) (*http.Response, error) {
	if c.opts.Endpoint == "" {
		return nil, backoff.Permanent(fmt.Errorf("%w: endpoint not configured", ErrUpstream))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return resp, nil
}

func upstreamStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
}

func (c *HTTPClient) record(kind string, err error) {
	if c.metrics != nil {
		c.metrics.RecordAIRequest(kind, err)
	}
}
