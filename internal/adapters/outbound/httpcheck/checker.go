// Package httpcheck probes published pages with HEAD requests over a pooled,
// retrying transport. It is independent of the render session.
package httpcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/domain"
)

const userAgent = "headeraudit/1.0 (+existence-check)"

// Options configures the pool and retry budget.
type Options struct {
	PoolSize int
	Retries  int
	Backoff  time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Checker implements domain.ExistenceChecker.
type Checker struct {
	client    *http.Client
	transport *http.Transport
	retries   int
	backoff   time.Duration
	log       *zap.Logger
}

// New creates a Checker with a connection pool bounded by opts.PoolSize.
func New(opts Options) *Checker {
	if opts.PoolSize <= 0 {
		opts.PoolSize = domain.DefaultPoolSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = opts.PoolSize
	transport.MaxIdleConnsPerHost = opts.PoolSize
	transport.MaxIdleConns = opts.PoolSize

	return &Checker{
		client:    &http.Client{Transport: transport, Timeout: opts.Timeout},
		transport: transport,
		retries:   opts.Retries,
		backoff:   opts.Backoff,
		log:       opts.Logger,
	}
}

// FromConfig creates a Checker from the existence section of the config.
func FromConfig(cfg domain.ExistenceConfig, log *zap.Logger) *Checker {
	return New(Options{
		PoolSize: cfg.PoolSize,
		Retries:  cfg.Retries,
		Backoff:  cfg.Backoff,
		Timeout:  cfg.Timeout,
		Logger:   log,
	})
}

// statusError is a definitive answer from the server; it is not retried.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.code) }

// permanentError wraps failures that another attempt cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// transientStatus is a server-side failure worth retrying.
type transientStatus struct{ code int }

func (e *transientStatus) Error() string { return fmt.Sprintf("transient status %d", e.code) }

// classifier retries transport failures and 5xx/429 answers only.
type classifier struct{}

func (classifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	var (
		se *statusError
		pe *permanentError
	)
	if errors.As(err, &se) || errors.As(err, &pe) {
		return retrier.Fail
	}
	if errors.Is(err, context.Canceled) {
		return retrier.Fail
	}
	return retrier.Retry
}

// CheckExists issues HEAD requests (following redirects) until a definitive
// answer or the retry budget is spent. It never returns an error: failures
// are reported as unreachable.
func (c *Checker) CheckExists(ctx context.Context, url string) domain.ExistenceResult {
	r := retrier.New(retrier.ExponentialBackoff(c.retries, c.backoff), classifier{})

	var (
		code    int
		attempt int
	)
	err := r.RunCtx(ctx, func(ctx context.Context) error {
		attempt++
		status, err := c.head(ctx, url)
		code = status
		if err != nil {
			c.log.Debug("existence check attempt failed",
				zap.String("url", domain.Redact(url)),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	})

	res := domain.ExistenceResult{StatusCode: code, Reachable: err == nil && code == http.StatusOK}
	var se *statusError
	if err != nil && !errors.As(err, &se) {
		res.Err = err
	}
	return res
}

func (c *Checker) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, &permanentError{err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.StatusCode, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, &transientStatus{code: resp.StatusCode}
	default:
		return resp.StatusCode, &statusError{code: resp.StatusCode}
	}
}

// Close releases idle pooled connections.
func (c *Checker) Close() {
	c.transport.CloseIdleConnections()
}
