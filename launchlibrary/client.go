package launchlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultBaseURL is the public Launch Library 2 endpoint.
	DefaultBaseURL = "https://ll.thespacedevs.com/2.2.0"

	// DefaultPageLimit is the number of upcoming launches requested per refresh.
	DefaultPageLimit = 50

	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "deltav/1.0"
	maxBodyBytes     = 16 << 20
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("launch library responded with %s", e.Status)
}

// Temporary reports whether the request is worth retrying (rate limiting or a server error).
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client fetches launches from Launch Library 2.
type Client struct {
	BaseURL    string        // API root without a trailing slash.
	UserAgent  string        // Sent on every request.
	HTTPClient *http.Client  // Underlying client; its Timeout bounds each attempt.
	Attempts   uint64        // Total attempts per fetch, at least 1.
	RetryBase  time.Duration // First backoff delay, doubled on each retry.
}

// NewClient creates a Client with defaults and applies the given options.
func NewClient(options ...func(*Client) error) (*Client, error) {
	client := &Client{
		BaseURL:    DefaultBaseURL,
		UserAgent:  defaultUserAgent,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Attempts:   3,
		RetryBase:  500 * time.Millisecond,
	}
	for _, option := range options {
		if err := option(client); err != nil {
			return nil, fmt.Errorf("applying option on launch library client : %w", err)
		}
	}
	return client, nil
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) func(*Client) error {
	return func(client *Client) error {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("parsing base url %s: %w", baseURL, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("base url %s must be http or https", baseURL)
		}
		client.BaseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithTimeout sets the timeout of a single attempt.
func WithTimeout(timeout time.Duration) func(*Client) error {
	return func(client *Client) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		client.HTTPClient.Timeout = timeout
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) func(*Client) error {
	return func(client *Client) error {
		if httpClient == nil {
			return errors.New("http client is nil")
		}
		client.HTTPClient = httpClient
		return nil
	}
}

// WithRetry sets the number of attempts and the first backoff delay.
func WithRetry(attempts uint64, base time.Duration) func(*Client) error {
	return func(client *Client) error {
		if attempts == 0 {
			return errors.New("attempts must be at least 1")
		}
		if base <= 0 {
			return errors.New("retry base must be positive")
		}
		client.Attempts = attempts
		client.RetryBase = base
		return nil
	}
}

// FetchUpcoming returns the upcoming launches, at most limit of them.
// Rate limiting, server errors and transport failures are retried with exponential backoff.
func (client *Client) FetchUpcoming(ctx context.Context, limit int) ([]NetworkLaunch, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	endpoint := fmt.Sprintf("%s/launch/upcoming/?%s", client.BaseURL, url.Values{
		"limit": []string{strconv.Itoa(limit)},
		"mode":  []string{"detailed"},
	}.Encode())

	backoff := retry.NewExponential(client.RetryBase)
	backoff = retry.WithCappedDuration(10*time.Second, backoff)
	backoff = retry.WithMaxRetries(client.Attempts-1, backoff)

	var page *LaunchResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := client.get(ctx, endpoint)
		if err != nil {
			if isRetryable(ctx, err) {
				return retry.RetryableError(err)
			}
			return err
		}
		page = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching upcoming launches: %w", err)
	}
	return page.Results, nil
}

func (client *Client) get(ctx context.Context, endpoint string) (*LaunchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request : %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", client.UserAgent)

	res, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doing request : %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{StatusCode: res.StatusCode, Status: res.Status}
	}

	body, err := decodeBody(res)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var page LaunchResponse
	if err := json.NewDecoder(body).Decode(&page); err != nil {
		return nil, fmt.Errorf("unmarshalling launches: %w", err)
	}
	return &page, nil
}

// isRetryable reports whether err is a transient failure: a retryable status, or a
// transport error that timed out, had its connection refused or reset, or lost the
// connection before a response arrived. Errors caused by the caller's context ending are
// never retried, and neither are TLS, URL or payload errors.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return false
	}
	if urlErr.Timeout() {
		return true
	}
	return errors.Is(urlErr.Err, syscall.ECONNREFUSED) ||
		errors.Is(urlErr.Err, syscall.ECONNRESET) ||
		errors.Is(urlErr.Err, io.ErrUnexpectedEOF) ||
		errors.Is(urlErr.Err, io.EOF)
}
