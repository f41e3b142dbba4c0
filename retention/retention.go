// Package retention decides how long a finished artifact survives before
// the collector may reclaim it.
package retention

import "time"

// MinTTL is the retention floor. Short clips still get two hours so slow
// downstream consumers have time to pick the file up.
const MinTTL = 2 * time.Hour

// For returns the time-to-live for an artifact of the given content
// duration: the duration itself, floored at MinTTL. Long-form content is
// retained at least long enough for a single viewing pass.
func For(duration time.Duration) time.Duration {
	if duration < MinTTL {
		return MinTTL
	}
	return duration
}
