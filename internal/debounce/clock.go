package debounce

import "time"

// Timer is a pending countdown
type Timer interface {
	Stop() bool
}

// Clock starts countdowns. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by time.AfterFunc
func RealClock() Clock {
	return realClock{}
}
