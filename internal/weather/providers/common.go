package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

func defaultHTTPConfig(client *http.Client) HTTPClientConfig {
	if client == nil {
		client = http.DefaultClient
	}
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		},
	}
}

// breakerOpenTimeout is how long an open circuit rejects calls before probing.
const breakerOpenTimeout = time.Minute

// newBreaker trips after five consecutive failures and probes again a minute later.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return newBreakerWithTimeout(name, breakerOpenTimeout)
}

func newBreakerWithTimeout(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: upstreamHealthy,
	})
}

// upstreamHealthy reports whether err leaves the upstream looking healthy.
// Only transport failures, 429 and 5xx count against the breaker.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return !retryable(err)
}

// breakerSet hands out one breaker per location. A venue whose upstream
// keeps failing opens only its own circuit.
type breakerSet struct {
	name    string
	timeout time.Duration

	mu    sync.Mutex
	byKey map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(name string) *breakerSet {
	return &breakerSet{
		name:    name,
		timeout: breakerOpenTimeout,
		byKey:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *breakerSet) forLocation(lat, lon float64) *gobreaker.CircuitBreaker {
	key := strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.byKey[key]
	if !ok {
		cb = newBreakerWithTimeout(b.name+"@"+key, b.timeout)
		b.byKey[key] = cb
	}
	return cb
}

// getJSON issues a GET with retries, exponential backoff and a circuit breaker,
// then decodes a 2xx body into out. Client errors (4xx other than 429) are
// not retried.
func getJSON(ctx context.Context, cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, rawURL string, out any) error {
	if cfg.Client == nil {
		return errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return errInvalidConfig
	}

	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := cb.Execute(func() (interface{}, error) {
			return nil, fetchOnce(ctx, cfg.Client, rawURL, out)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func fetchOnce(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, errUnexpected) {
		return false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr)
}
