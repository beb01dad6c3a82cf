package http

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ErrorType classifies an upload failure for the retry loop.
type ErrorType int

const (
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential: 403, expired or invalid token or SAS
	ErrorTypeCredential
	// ErrorTypeNetwork: resets, refused connections, timeouts
	ErrorTypeNetwork
	// ErrorTypeRetryable: 5xx and throttling
	ErrorTypeRetryable
	// ErrorTypeFatal: everything else
	ErrorTypeFatal
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeCredential:
		return "credential"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// RetryConfig holds retry parameters for ExecuteWithRetry.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultRetryConfig returns the settings used for archive exports.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     15 * time.Second,
	}
}

var (
	credentialMarkers = []string{
		"expired", "invalid token", "expiredtoken", "403", "unauthorized",
		"authentication failed", "authenticationfailed", "invalid sas",
		"sas token", "signature not valid", "authorization failure",
		"signaturedoesnotmatch", "invalidaccesskeyid",
	}
	networkMarkers = []string{
		"tls handshake timeout", "connection reset", "i/o timeout", "eof",
		"connection refused", "broken pipe", "timeout", "no such host",
	}
	retryableMarkers = []string{
		"requesttimeout", "internalerror", "serviceunavailable", "slowdown",
		"throttl", "429", "500", "502", "503", "504", "server busy",
		"serverbusy", "operationtimeout", "operation timeout", "service unavailable",
	}
)

// ClassifyError maps an S3 or Azure error to a retry strategy by its text.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeFatal
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, credentialMarkers):
		return ErrorTypeCredential
	case containsAny(msg, networkMarkers):
		return ErrorTypeNetwork
	case containsAny(msg, retryableMarkers):
		return ErrorTypeRetryable
	default:
		return ErrorTypeFatal
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// CalculateBackoff returns random(0, min(maxDelay, initialDelay * 2^attempt)).
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}
	base := maxDelay
	if attempt < 30 {
		if d := time.Duration(1<<uint(attempt)) * initialDelay; d < maxDelay {
			base = d
		}
	}
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs operation up to cfg.MaxRetries times. Fatal errors
// return at once; network and server errors back off with full jitter;
// credential errors retry after a fixed second. It stops early when ctx is
// done or its deadline would pass during the next backoff.
func ExecuteWithRetry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		errType := ClassifyError(err)
		if errType == ErrorTypeFatal {
			return err
		}
		if attempt == cfg.MaxRetries-1 {
			break
		}

		wait := time.Second
		if errType != ErrorTypeCredential {
			wait = CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return fmt.Errorf("deadline too close to retry: %w", err)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, errType)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}
