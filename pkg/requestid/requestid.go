// Package requestid generates unique identifiers for tracking individual chat
// requests through logs and usage records.
package requestid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns a request ID of the form YYYYMMDD-HHMMSS-xxxxxxxx where the
// suffix is the first 8 characters of a random UUID.
func New() string {
	prefix := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}
