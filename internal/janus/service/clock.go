package service

import "time"

// Clock returns the current instant. Every service reads time through one
// of these so tests can pin the clock; the default is UTC wall-clock time.
type Clock func() time.Time

func UTCNow() time.Time { return time.Now().UTC() }

func orUTC(c Clock) Clock {
	if c == nil {
		return UTCNow
	}
	return c
}
