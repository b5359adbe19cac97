// Package clock is the single time source for request lifecycle timestamps.
package clock

import "time"

// NowFunc returns current time. Tests replace it to freeze decision timestamps.
var NowFunc = time.Now

// Now returns the current time truncated to microseconds in UTC, the
// precision every request store can round-trip.
func Now() time.Time { return NowFunc().UTC().Truncate(time.Microsecond) }

// Since reports the elapsed time from t using NowFunc.
func Since(t time.Time) time.Duration { return Now().Sub(t) }
