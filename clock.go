package coro

import "time"

// processStart anchors fallbackNanoseconds, used by platform clocks that
// can't reach a native monotonic syscall.
var processStart = time.Now()

// fallbackNanoseconds returns a monotonic reading derived from time.Now,
// which on all Go-supported platforms carries a monotonic component
// (see the time package docs); used when a platform-native clock read
// fails or isn't wired (clock_other.go, and clock_linux.go's error path).
func fallbackNanoseconds() int64 {
	return int64(time.Since(processStart))
}

// clockOffsetValue converts a wall-clock (seconds, nanoseconds)-since-Unix-epoch
// reading into the NowNanoseconds() scale. Computed once at package init
// from a paired (wall, monotonic) sample, so DeadlineFrom(ts) can accept a
// deadline expressed in wall-clock terms (as callers naturally compute
// "100ms from now" via time.Now()) without NowNanoseconds itself needing
// to mean anything but "monotonic since some fixed instant".
var clockOffsetValue = nowNanoseconds() - time.Now().UnixNano()

// NowNanoseconds returns a monotonic wall-clock reading, in nanoseconds,
// per spec.md §4.1. The epoch is fixed but platform-dependent (the
// CLOCK_MONOTONIC or performance-counter origin, or process start on the
// fallback path) and otherwise meaningless: callers must only compare two readings from this
// function, never interpret the value as wall-clock time.
//
// The platform-specific implementation lives in clock_linux.go,
// clock_windows.go, and clock_other.go (the teacher's poller_linux.go /
// poller_darwin.go / poller_windows.go split, applied to the clock
// instead of I/O polling).
func NowNanoseconds() int64 {
	return nowNanoseconds()
}

// DeadlineFrom normalizes a (seconds, nanoseconds) pair — as accepted by
// timedlock/timedwait call sites — into the same NowNanoseconds() scale,
// per spec.md §4.1's deadline_from(ts). sec/nsec are seconds/nanoseconds
// since the Unix epoch, e.g. from a time.Time via Unix()/Nanosecond().
func DeadlineFrom(sec int64, nsec int64) int64 {
	return sec*int64(time.Second) + nsec + clockOffsetValue
}

// clockOffset exposes clockOffsetValue. No code in this package calls it.
func clockOffset() int64 { return clockOffsetValue }

// DeadlineFromNow returns a deadline d in the future, in the
// NowNanoseconds() scale: NowNanoseconds() plus d. It does not go through
// DeadlineFrom or the wall clock.
func DeadlineFromNow(d time.Duration) int64 {
	return NowNanoseconds() + int64(d)
}

// deadlineExceeded reports whether deadline (as returned by DeadlineFrom,
// or computed relative to NowNanoseconds) has passed.
func deadlineExceeded(deadline int64) bool {
	return deadline != 0 && NowNanoseconds() > deadline
}
