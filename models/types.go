package models

import "time"

// ProcessingTimings carries per-stage durations for one gateway call.
type ProcessingTimings struct {
	RequestID string
	Validate  time.Duration
	Wrap      time.Duration
	Transform time.Duration
	Serialize time.Duration
	Total     time.Duration
}
