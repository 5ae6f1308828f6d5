package util

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts
	InitialWait time.Duration // Initial wait duration (doubled each retry)
	MaxWait     time.Duration // Maximum wait duration between retries
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 4,
		InitialWait: 50 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

// IsRetryableError checks if an error is worth retrying.
// True for a busy/locked snapshot database and transient I/O errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EBUSY, syscall.EIO:
			return true
		}
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"resource temporarily unavailable",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// RetryWithBackoff runs operation until it succeeds, fails with an error
// IsRetryableError rejects, or cfg.MaxAttempts is reached. The wait doubles
// after every attempt up to cfg.MaxWait. A nil cfg uses DefaultRetryConfig.
func RetryWithBackoff[T any](cfg *RetryConfig, operation func() (T, error), operationName string) (T, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var zero T
	wait := cfg.InitialWait
	for attempt := 1; ; attempt++ {
		result, err := operation()
		switch {
		case err == nil:
			if attempt > 1 {
				DebugLog("%s succeeded on attempt %d", operationName, attempt)
			}
			return result, nil
		case !IsRetryableError(err):
			return result, err
		case attempt >= cfg.MaxAttempts:
			WarnLog("%s still failing after %d attempts: %v", operationName, attempt, err)
			return zero, fmt.Errorf("%s: gave up after %d attempts: %w", operationName, attempt, err)
		}

		DebugLog("%s busy (attempt %d/%d), waiting %v: %v", operationName, attempt, cfg.MaxAttempts, wait, err)
		time.Sleep(wait)
		wait = min(wait*2, cfg.MaxWait)
	}
}

// Retry is RetryWithBackoff for operations without a result
func Retry(cfg *RetryConfig, operation func() error, operationName string) error {
	_, err := RetryWithBackoff(cfg, func() (struct{}, error) {
		return struct{}{}, operation()
	}, operationName)
	return err
}
