package download

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitedError is returned when a refresh is attempted inside the
// cool-down window.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("download rate limit exceeded, next download allowed in %.1f hours", e.Remaining.Hours())
}

var (
	// ErrInProgress is returned when another refresh is running.
	ErrInProgress = errors.New("download already in progress")

	// ErrInvalidArchive wraps archives that cannot be opened or extracted.
	ErrInvalidArchive = errors.New("invalid dataset archive")
)
