// Package retry provides a generic network-aware retry wrapper for HTTP calls,
// used by pkg/translator/openaibackend around its chat-completion requests.
package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// Config controls the two-layer retry loop: an inner loop retries retryable
// HTTP statuses and network errors (network errors use the faster Network*
// delays), and an outer loop, bounded by NetworkMaxRetries, runs the inner
// loop again whenever it ended on a network error.
type Config struct {
	MaxRetries          int
	NetworkMaxRetries   int
	InitialDelay        time.Duration
	MaxDelay            time.Duration
	BackoffFactor       float64
	NetworkInitialDelay time.Duration
	NetworkMaxDelay     time.Duration
}

// DefaultConfig returns sane defaults for an LLM backend HTTP client.
func DefaultConfig() Config {
	return Config{
		MaxRetries:          3,
		NetworkMaxRetries:   5,
		InitialDelay:        1 * time.Second,
		MaxDelay:            30 * time.Second,
		BackoffFactor:       2.0,
		NetworkInitialDelay: 100 * time.Millisecond,
		NetworkMaxDelay:     5 * time.Second,
	}
}

type errorClass int

const (
	classNone errorClass = iota
	classNetwork
	classRetryableHTTP
	classClientError
	classServerError
	classPermanent
)

// Retrier retries a RoundTrip-shaped function according to Config.
type Retrier struct {
	config Config
}

func New(config Config) *Retrier {
	return &Retrier{config: config}
}

type RetryableFunc func() (*http.Response, error)

func (r *Retrier) Execute(ctx context.Context, fn RetryableFunc) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for networkRetry := 0; networkRetry <= r.config.NetworkMaxRetries; networkRetry++ {
		for totalRetry := 0; totalRetry <= r.config.MaxRetries; totalRetry++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			resp, err := fn()
			if err == nil && resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			class := r.classify(err, resp)
			lastErr = err
			if resp != nil {
				if lastResp != nil {
					lastResp.Body.Close()
				}
				lastResp = resp
			}

			shouldRetry, isNetwork := r.shouldRetry(class, totalRetry, networkRetry)
			if !shouldRetry {
				break
			}

			delay := r.delay(isNetwork, totalRetry, networkRetry)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr == nil || !r.isNetworkError(lastErr) {
			break
		}
	}

	if lastErr != nil {
		return lastResp, lastErr
	}
	if lastResp != nil {
		return lastResp, nil
	}
	return nil, errors.New("retry: no response received")
}

func (r *Retrier) classify(err error, resp *http.Response) errorClass {
	if err != nil {
		if r.isNetworkError(err) {
			return classNetwork
		}
		return classPermanent
	}
	if resp != nil {
		switch {
		case resp.StatusCode >= 500:
			return classServerError
		case resp.StatusCode == http.StatusTooManyRequests:
			return classRetryableHTTP
		case resp.StatusCode >= 400:
			return classClientError
		}
	}
	return classNone
}

func (r *Retrier) isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return r.isNetworkError(urlErr.Err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused", "connection reset", "connection timed out",
		"timeout", "temporary failure", "network is unreachable",
		"no such host", "broken pipe", "i/o timeout", "eof",
	} {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func (r *Retrier) shouldRetry(class errorClass, totalRetry, networkRetry int) (retry bool, isNetwork bool) {
	switch class {
	case classNetwork:
		return totalRetry < r.config.MaxRetries && networkRetry < r.config.NetworkMaxRetries, true
	case classServerError, classRetryableHTTP:
		return totalRetry < r.config.MaxRetries, false
	default:
		return false, false
	}
}

func (r *Retrier) delay(isNetwork bool, totalRetry, networkRetry int) time.Duration {
	delay, maxDelay := r.config.InitialDelay, r.config.MaxDelay
	retryCount := totalRetry
	if isNetwork {
		delay, maxDelay, retryCount = r.config.NetworkInitialDelay, r.config.NetworkMaxDelay, networkRetry
	}

	if retryCount > 0 {
		factor := r.config.BackoffFactor
		if factor <= 1.0 {
			factor = 2.0
		}
		delay = time.Duration(float64(delay) * math.Pow(factor, float64(retryCount)))
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// Transport returns an http.RoundTripper that retries through Execute, for
// callers (like a third-party SDK's ClientConfig) that want an *http.Client
// with custom retry behavior rather than a replacement Do-compatible type.
func (r *Retrier) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryRoundTripper{base: base, retrier: r}
}

type retryRoundTripper struct {
	base    http.RoundTripper
	retrier *Retrier
}

func (t *retryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.retrier.Execute(req.Context(), func() (*http.Response, error) {
		return t.base.RoundTrip(req.Clone(req.Context()))
	})
}
