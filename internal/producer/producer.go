// Package producer builds the upstream fetchers that compute resource values.
package producer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"go-feed-cache/internal/interfaces"
)

const (
	KindHTTPJSON = "httpjson"
	KindFeed     = "feed"

	DefaultTimeout  = 15 * time.Second
	DefaultMaxItems = 20

	// maxBodySize caps how much of an upstream response is read
	maxBodySize = 16 << 20
)

// Func adapts a plain function to interfaces.Producer
type Func func(ctx context.Context) (any, error)

// Ensure Func implements interfaces.Producer
var _ interfaces.Producer = Func(nil)

// Produce calls f(ctx)
func (f Func) Produce(ctx context.Context) (any, error) {
	return f(ctx)
}

// Spec declares a configurable producer in the resource registry
type Spec struct {
	Kind     string            `yaml:"kind" validate:"required,oneof=httpjson feed"`
	URL      string            `yaml:"url" validate:"required,url"`
	Headers  map[string]string `yaml:"headers"`
	Timeout  time.Duration     `yaml:"timeout" validate:"gte=0"`
	Path     string            `yaml:"path"`
	MaxItems int               `yaml:"max_items" validate:"gte=0"`
}

// New builds the producer described by spec. A nil client uses http.DefaultClient.
func New(spec Spec, client *http.Client, logger *zap.Logger) (interfaces.Producer, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}

	f := &fetcher{
		client:  client,
		url:     spec.URL,
		headers: spec.Headers,
		timeout: spec.Timeout,
		logger:  logger,
	}

	switch spec.Kind {
	case KindHTTPJSON:
		return &HTTPJSON{fetcher: f, path: spec.Path}, nil
	case KindFeed:
		maxItems := spec.MaxItems
		if maxItems <= 0 {
			maxItems = DefaultMaxItems
		}
		return &Feed{fetcher: f, maxItems: maxItems}, nil
	default:
		return nil, fmt.Errorf("unknown producer kind %q", spec.Kind)
	}
}

// fetcher performs the bounded GET shared by every producer kind
type fetcher struct {
	client  *http.Client
	url     string
	headers map[string]string
	timeout time.Duration
	logger  *zap.Logger
}

func (f *fetcher) fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", f.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, f.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", f.url, err)
	}

	f.logger.Debug("Fetched upstream",
		zap.String("url", f.url),
		zap.String("size", humanize.Bytes(uint64(len(body)))),
		zap.Duration("elapsed", time.Since(start)))

	return body, nil
}
