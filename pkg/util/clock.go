package util

import "time"

// Clock abstracts time.Now so tests can pin trade timestamps.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
