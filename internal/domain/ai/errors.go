package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrTimeout indicates the provider call did not finish before the configured deadline.
var ErrTimeout = errors.New("timeout")
