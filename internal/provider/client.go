package provider

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/utakatalp/goal-forecaster/internal/telemetry"
)

// ErrDailyBudget is returned once the daily request allowance is spent.
var ErrDailyBudget = errors.New("daily request budget exhausted")

// APIError is an error reported inside a successful HTTP response.
type APIError struct {
	Endpoint string
	Detail   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api-football %s: %s", e.Endpoint, e.Detail)
}

type Options struct {
	BaseURL        string
	APIKey         string
	RequestsPerMin int
	RequestsPerDay int
	Timeout        time.Duration
}

// Client talks to the API-Football v3 REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu        sync.Mutex
	perDay    int
	day       string
	usedToday int
	now       func() time.Time
}

func NewClient(opts Options) *Client {
	perMin := opts.RequestsPerMin
	if perMin <= 0 {
		perMin = 300
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
		perDay:  opts.RequestsPerDay,
		now:     time.Now,
	}
}

// RequestsToday is the number of requests sent since midnight UTC.
func (c *Client) RequestsToday() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.day != c.now().UTC().Format("2006-01-02") {
		return 0
	}
	return c.usedToday
}

func (c *Client) spend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	today := c.now().UTC().Format("2006-01-02")
	if c.day != today {
		c.day, c.usedToday = today, 0
	}
	if c.perDay > 0 && c.usedToday >= c.perDay {
		return ErrDailyBudget
	}
	c.usedToday++
	return nil
}

type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// apiErrors flattens the "errors" field, which is an empty list on success
// and an object or list of messages otherwise.
func apiErrors(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("[]")) || bytes.Equal(raw, []byte("{}")) || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var byKey map[string]string
	if err := json.Unmarshal(raw, &byKey); err == nil {
		parts := make([]string, 0, len(byKey))
		for k, v := range byKey {
			parts = append(parts, k+": "+v)
		}
		return strings.Join(parts, "; ")
	}
	return string(raw)
}

// get calls an endpoint and decodes its "response" array into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if err := c.spend(); err != nil {
		return err
	}

	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return err
	}
	telemetry.Debugf("api-football: GET %s -> %d (%s)", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api-football %s: status %d", endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding %s envelope: %w", endpoint, err)
	}
	if detail := apiErrors(env.Errors); detail != "" {
		return &APIError{Endpoint: endpoint, Detail: detail}
	}
	if len(env.Response) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(env.Response))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// decodeBody reads the response body, undoing any content encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch enc := resp.Header.Get("Content-Encoding"); enc {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "", "identity":
	default:
		telemetry.Warnf("api-football: unknown content encoding %q", enc)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
