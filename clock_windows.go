//go:build windows

package coro

import "golang.org/x/sys/windows"

// nowNanoseconds reads the performance counter via golang.org/x/sys/windows,
// mirroring the teacher's poller_windows.go IOCP-specific file for the
// clock instead of I/O readiness.
func nowNanoseconds() int64 {
	freq, err := windows.QueryPerformanceFrequency()
	if err != nil || freq == 0 {
		return fallbackNanoseconds()
	}
	counter, err := windows.QueryPerformanceCounter()
	if err != nil {
		return fallbackNanoseconds()
	}
	return (counter * 1e9) / freq
}
