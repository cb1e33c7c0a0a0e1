package registry

import (
	"time"
)

// Status is the last known validation outcome of a definition.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusReady   Status = "ready"
	StatusInvalid Status = "invalid"
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// CachedStatus stores the validation outcome of one definition revision.
type CachedStatus struct {
	Hash      string    `json:"hash"`
	Status    Status    `json:"status"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// StatusCacheFile is the JSON file format for the status cache
type StatusCacheFile struct {
	Version  string                  `json:"version"`
	Statuses map[string]CachedStatus `json:"statuses"`
}
