package coro

import (
	"sync/atomic"
)

// CoroutineState is the state of a [Coroutine], per spec.md §3.
//
// State Machine:
//
//	NotRunning --Create/resumed first time--> Running
//	Running    --Yield (direct or via a blocking primitive)--> Blocked
//	Blocked    --Resume--> Running
//	Running    --function return, or Terminate--> NotRunning
type CoroutineState int32

const (
	// NotRunning means the entry function hasn't been assigned yet (a
	// fresh, idle coroutine) or has already completed.
	NotRunning CoroutineState = iota
	// Running means the coroutine is at the top of its scheduler's
	// running stack: it has the CPU.
	Running
	// Blocked means the coroutine has popped itself off the running
	// stack via Yield and is awaiting Resume.
	Blocked
)

// String returns a human-readable representation of the state.
func (s CoroutineState) String() string {
	switch s {
	case NotRunning:
		return "NotRunning"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// atomicState is a lock-free holder for a CoroutineState, so State() can
// be read from any goroutine without acquiring the scheduler's lock.
type atomicState struct {
	v atomic.Int32
}

func (s *atomicState) load() CoroutineState {
	return CoroutineState(s.v.Load())
}

func (s *atomicState) store(state CoroutineState) {
	s.v.Store(int32(state))
}
