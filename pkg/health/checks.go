// Package health provides liveness checks for external dependencies.
package health

import (
	"fmt"
	"net/http"
	"time"
)

// CheckFunc probes one dependency and returns its status and a short message.
type CheckFunc func() (bool, string)

// HTTPCheck reports whether baseURL answers with a 2xx-4xx status. 5xx and
// transport errors count as down; 4xx means reachable but unauthenticated,
// which is healthy enough for a liveness probe.
func HTTPCheck(baseURL string, timeout time.Duration) CheckFunc {
	client := &http.Client{Timeout: timeout}
	return func() (bool, string) {
		resp, err := client.Get(baseURL)
		if err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return false, fmt.Sprintf("status %d", resp.StatusCode)
		}
		return true, "ok"
	}
}

// RunAll executes every check and returns per-name results plus overall
// status.
func RunAll(checks map[string]CheckFunc) (bool, map[string]string) {
	healthy := true
	results := make(map[string]string, len(checks))
	for name, check := range checks {
		ok, msg := check()
		if !ok {
			healthy = false
		}
		results[name] = msg
	}
	return healthy, results
}
