package harvest

import (
	"bytes"
	"fmt"
)

// TransientError wraps a network failure or retryable HTTP status. Units
// failing transiently are retried a bounded number of times and otherwise
// left uncheckpointed for the next run.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// BlockedError marks a site-level access rejection. The unit is abandoned
// without a checkpoint so a later run retries it: a block means the attempt
// was invalid, not that zero results is the truth.
type BlockedError struct {
	CourtID string
	DateBS  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked by WAF for %s on %s", e.CourtID, e.DateBS)
}

// MalformedError marks a response missing an expected table or selector.
// Unless the caller maps it to a transient condition, the unit is treated
// as a valid zero-result observation and checkpointed.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed response: " + e.Reason
}

// Retryable HTTP statuses, matching the source portals' failure modes.
var transientStatuses = map[int]struct{}{
	500: {}, 502: {}, 503: {}, 504: {}, 408: {}, 429: {},
}

// TransientStatus reports whether an HTTP status code should be retried.
func TransientStatus(code int) bool {
	_, ok := transientStatuses[code]
	return ok
}

// The portal front-end rejects over-eager clients with an HTML banner rather
// than an HTTP error. Matching on the literal wording is fragile by nature;
// any change on the site defeats it, so the check lives in exactly one place.
var wafMarkers = [][]byte{
	[]byte("The requested URL was rejected"),
	[]byte("support ID is:"),
}

// IsWAFBlock reports whether a response body is an access-rejection banner.
func IsWAFBlock(body []byte) bool {
	for _, marker := range wafMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}
