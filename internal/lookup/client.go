package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetch errors. All of them result in a fallback payload.
var (
	ErrNotConfigured    = errors.New("lookup provider not configured")
	ErrUnexpectedStatus = errors.New("unexpected provider status")
	ErrMalformedPayload = errors.New("malformed provider payload")
	ErrUnsupportedKind  = errors.New("unsupported lookup kind")
)

const (
	maxPayloadBytes       = 1 << 20
	defaultFetchTimeout   = 10 * time.Second
	dialTimeout           = 5 * time.Second
	responseHeaderTimeout = 8 * time.Second
)

// NewHTTPClient creates an HTTP client for provider calls. The total timeout
// bounds every fetch so a hung provider degrades to the default payload.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// HTTPConfig locates the market-data and sentiment providers.
type HTTPConfig struct {
	MarketDataBaseURL string
	MarketDataAPIKey  string
	SentimentURL      string
	SentimentAPIKey   string
}

// HTTPFetcher fetches lookups from the configured HTTP providers.
type HTTPFetcher struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses NewHTTPClient.
func NewHTTPFetcher(cfg HTTPConfig, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = NewHTTPClient(0)
	}
	cfg.MarketDataBaseURL = strings.TrimSuffix(cfg.MarketDataBaseURL, "/")
	return &HTTPFetcher{cfg: cfg, client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, kind Kind, input string) (json.RawMessage, error) {
	req, err := f.newRequest(ctx, kind, input)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayloadBytes))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", kind, err)
	}
	if !json.Valid(body) {
		return nil, ErrMalformedPayload
	}

	return body, nil
}

func (f *HTTPFetcher) newRequest(ctx context.Context, kind Kind, input string) (*http.Request, error) {
	var (
		req *http.Request
		err error
		key string
	)

	switch kind {
	case KindTrends, KindSEO:
		if f.cfg.MarketDataBaseURL == "" {
			return nil, ErrNotConfigured
		}
		endpoint := f.cfg.MarketDataBaseURL + "/social/trends"
		if kind == KindSEO {
			endpoint = f.cfg.MarketDataBaseURL + "/seo/" + url.PathEscape(input)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		key = f.cfg.MarketDataAPIKey

	case KindSentiment:
		if f.cfg.SentimentURL == "" {
			return nil, ErrNotConfigured
		}
		body, _ := json.Marshal(map[string]string{"text": input})
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.SentimentURL, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		key = f.cfg.SentimentAPIKey

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", kind, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Strategist/1.0")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	return req, nil
}
