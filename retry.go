package teco

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/teco-project/teco-go/tcerr"
)

// A RetryPolicy decides whether a failed attempt is repeated and how long
// to wait before the next one. attempt counts from zero.
type RetryPolicy interface {
	Decide(err error, attempt int) (time.Duration, bool)
}

const (
	// DefaultRetryBase is the first backoff interval of the standard
	// policies.
	DefaultRetryBase = time.Second
	// DefaultMaxRetries bounds the retries of the standard policies.
	DefaultMaxRetries = 4
)

// DefaultRetryPolicy retries throttled and platform-internal errors with
// jittered exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return JitteredExponentialRetry(DefaultRetryBase, DefaultMaxRetries)
}

// NoRetry stops on the first error.
func NoRetry() RetryPolicy {
	return noRetry{}
}

type noRetry struct{}

func (noRetry) Decide(error, int) (time.Duration, bool) {
	return 0, false
}

// ExponentialRetry waits base * 2^attempt between attempts.
func ExponentialRetry(base time.Duration, maxRetries int) RetryPolicy {
	return &exponentialRetry{base: base, maxRetries: maxRetries}
}

// JitteredExponentialRetry waits a uniform duration from
// [base * 2^attempt / 2, base * 2^attempt) to spread out synchronized
// retries.
func JitteredExponentialRetry(base time.Duration, maxRetries int) RetryPolicy {
	return &exponentialRetry{base: base, maxRetries: maxRetries, jitter: true}
}

type exponentialRetry struct {
	base       time.Duration
	maxRetries int
	jitter     bool
}

func (p *exponentialRetry) Decide(err error, attempt int) (time.Duration, bool) {
	if attempt >= p.maxRetries {
		return 0, false
	}

	var apiErr tcerr.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	retryAfter, hasRetryAfter := retryAfterWait(apiErr)
	if !hasRetryAfter && !retryableCode(apiErr.ErrorCode()) {
		return 0, false
	}
	if hasRetryAfter {
		return retryAfter, true
	}

	wait := p.base << attempt
	if p.jitter {
		half := wait / 2
		wait = half + time.Duration(rand.Int63n(int64(half)))
	}
	return wait, true
}

// retryAfterWait honors an explicit Retry-After instruction on a service
// error, in whole seconds.
func retryAfterWait(err tcerr.APIError) (time.Duration, bool) {
	header := err.ErrorContext().Header
	if header == nil {
		return 0, false
	}
	value := header.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	seconds, convErr := strconv.Atoi(value)
	if convErr != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func retryableCode(code string) bool {
	if code == tcerr.CodeRequestLimitExceeded ||
		strings.HasPrefix(code, tcerr.CodeRequestLimitExceeded+".") {
		return true
	}
	return code == tcerr.CodeInternalError
}
