package utils

import "time"

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
