package coro

// guardValue is the canary written into both guard words of a Coroutine
// at allocation time, mirroring COROUTINE_GUARD_VALUE (0x4abc4abc) from
// the original C implementation. A guard word that no longer reads this
// value means the struct has been overwritten (e.g. a stale pointer used
// after the coroutine returned to the idle pool and was reallocated for
// something else) and the handle must be treated as corrupt.
const guardValue uint32 = 0x4abc4abc

// CoroutineID identifies a coroutine for application-level bookkeeping
// (distinct from the internal sequence number used for idle-pool reuse).
// The zero value means "not set", matching spec.md's ID_NOT_SET.
type CoroutineID int64

// IDNotSet is the sentinel CoroutineID meaning the application never
// called SetID on this coroutine.
const IDNotSet CoroutineID = 0

// EntryFunc is a coroutine's body. arg is the value passed to the first
// Resume call; the returned value becomes the Value of the Result
// returned by that final Resume.
type EntryFunc func(sched *Scheduler, self *Coroutine, arg any) any

// Coroutine is a single cooperatively-scheduled unit of execution,
// realized as a goroutine rendezvous-synchronized with its scheduler over
// a pair of unbuffered channels (see engine.go). A Coroutine value is
// reused across its lifetimes in the idle pool, so application code must
// never retain a *Coroutine across a Terminate/completion without first
// checking Resumable or the guard words.
type Coroutine struct {
	guard1, guard2 uint32

	scheduler *Scheduler
	seq       int64 // internal identity, stable across reuse
	id        CoroutineID
	userData  any

	state   atomicState
	fn      EntryFunc
	started bool

	resumeCh chan any
	yieldCh  chan yieldMsg

	inRunningList bool
	inIdleList    bool

	blockingComutex     *Comutex
	blockingCocondition *Cocondition

	waitNext, waitPrev *Coroutine
	waitQueue          *waiterQueue

	inbox *Queue
}

type yieldFlag int

const (
	yieldPlain yieldFlag = iota
	yieldWait
	yieldTimedWait
)

type yieldMsg struct {
	value     any
	flag      yieldFlag
	returned  bool
	recovered any
}

// newCoroutine allocates a fresh, idle Coroutine with valid guard words
// and ready-to-use channels. Channels are never recreated across reuse:
// since a coroutine's goroutine always exits after its final yieldMsg,
// there is never more than one sender on resumeCh or one sender on
// yieldCh alive at a time, so reusing the channels across lifetimes is
// safe and avoids an allocation per Create.
func newCoroutine(s *Scheduler, seq int64) *Coroutine {
	return &Coroutine{
		guard1:    guardValue,
		guard2:    guardValue,
		scheduler: s,
		seq:       seq,
		resumeCh:  make(chan any),
		yieldCh:   make(chan yieldMsg),
	}
}

// valid reports whether the guard words still read guardValue.
func (c *Coroutine) valid() bool {
	return c.guard1 == guardValue && c.guard2 == guardValue
}

// onAnyList reports whether c is currently a member of the running list
// or the idle list — i.e. whether it is NOT a suspended, resumable leaf,
// per spec.md's NOT_RESUMABLE rule. A coroutine parked in a mutex or
// condition waiter queue is still a suspended leaf and may be resumed.
func (c *Coroutine) onAnyList() bool {
	return c.inRunningList || c.inIdleList
}

// Resumable reports whether resuming c now would let it make progress: c
// must be resumable by Scheduler.Resume (not corrupt, not on the running
// or idle list), and, if it is parked on a Comutex or Cocondition, that
// primitive must be ready for it (the mutex unlocked with c at the head
// of its queue, or a signal pending with c at the head of the condition's
// queue). The deadline of a TimedLock/TimedWait does not by itself make c
// resumable. It is derived from list membership and primitive state
// rather than cached, per the Open Question in spec.md §9 preferring
// derived truth over a stored flag.
func (c *Coroutine) Resumable() bool {
	if !c.valid() || c.onAnyList() {
		return false
	}
	if m := c.blockingComutex; m != nil {
		return m.owner == nil && m.waiters.front() == c
	}
	if cond := c.blockingCocondition; cond != nil {
		return cond.numSignals > 0 && cond.waiters.front() == c
	}
	return true
}

// ID returns the application-assigned identifier, or IDNotSet.
func (c *Coroutine) ID() CoroutineID { return c.id }

// SetID assigns an application-level identifier to c.
func (c *Coroutine) SetID(id CoroutineID) { c.id = id }

// UserData returns the free-form per-coroutine payload, the Go analogue
// of the original coroutineSetMetadata/coroutineGetMetadata void* slot.
func (c *Coroutine) UserData() any { return c.userData }

// SetUserData assigns the free-form per-coroutine payload.
func (c *Coroutine) SetUserData(v any) { c.userData = v }

// State returns the coroutine's current run state.
func (c *Coroutine) State() CoroutineState { return c.state.load() }

// Scheduler returns the scheduler that owns c.
func (c *Coroutine) Scheduler() *Scheduler { return c.scheduler }

// Yield suspends c, handing value back to whichever Resume call is
// currently waiting on it, and blocks until the next Resume delivers a
// new argument. It is an error to call Yield from the scheduler's root
// coroutine, since the root has no Resume call of its own to yield to.
func (c *Coroutine) Yield(value any) (any, error) {
	return c.yieldInternal(value, yieldPlain)
}

func (c *Coroutine) yieldInternal(value any, flag yieldFlag) (any, error) {
	if c == c.scheduler.root {
		return nil, newOpError("yield", StatusError, ErrRootYield)
	}
	c.state.store(Blocked)
	c.yieldCh <- yieldMsg{value: value, flag: flag}
	arg := <-c.resumeCh
	if term, ok := arg.(terminateToken); ok {
		panic(term)
	}
	c.state.store(Running)
	return arg, nil
}

// terminateToken is delivered through resumeCh by Scheduler.Terminate to
// unwind a blocked coroutine's stack via panic/recover, the same
// technique used by channel-rendezvous coroutine libraries to emulate a
// forced return without OS thread support for stack teardown.
type terminateToken struct{}

// run is the body of the goroutine backing c. It waits for the first
// resume argument, invokes fn, and reports completion (or termination)
// back over yieldCh exactly once.
func (c *Coroutine) run() {
	arg := <-c.resumeCh
	if term, ok := arg.(terminateToken); ok {
		_ = term
		c.yieldCh <- yieldMsg{returned: true}
		return
	}
	var ret any
	var recovered any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(terminateToken); ok {
					recovered = nil
					return
				}
				recovered = r
			}
		}()
		ret = c.fn(c.scheduler, c, arg)
	}()
	c.yieldCh <- yieldMsg{returned: true, value: ret, recovered: recovered}
}
