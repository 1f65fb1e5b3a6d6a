package common

import (
	"github.com/google/uuid"
)

// NewCorrelationID generates a unique correlation ID with the given prefix
// Format: <prefix>_<uuid>
func NewCorrelationID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

// NewScanID generates a unique scan ID with the "scan_" prefix
func NewScanID() string {
	return NewCorrelationID("scan")
}
