package coro

// MutexMode selects a [Comutex]'s locking discipline, per spec.md §4.4.
// The values are a bitmask so Recursive and Timed can combine.
type MutexMode int

const (
	// Plain is a single-owner, non-reentrant mutex: a second Lock by the
	// owner blocks (or, via TryLock, returns StatusBusy) the same as a
	// lock attempt by any other coroutine.
	Plain MutexMode = 1 << iota
	// Recursive allows the owning coroutine to relock without blocking;
	// Unlock must be called once per successful Lock/TryLock/TimedLock.
	Recursive
	// Timed enables TimedLock; a Comutex created without this flag
	// rejects TimedLock with ErrWrongMutexMode.
	Timed
)

// Comutex is a cooperative mutex scoped to coroutines on a single
// [Scheduler]: blocking on it yields the calling coroutine rather than
// parking an OS thread, with a FIFO waiter queue guaranteeing that the
// longest-waiting coroutine is the next to acquire it, per spec.md §4.4's
// fairness invariant.
type Comutex struct {
	scheduler      *Scheduler
	mode           MutexMode
	owner          *Coroutine
	recursionLevel int
	waiters        waiterQueue
	lastYieldValue any
}

// NewComutex creates a Comutex in the given mode, bound to scheduler for
// its unlock callback.
func NewComutex(scheduler *Scheduler, mode MutexMode) *Comutex {
	if mode == 0 {
		mode = Plain
	}
	return &Comutex{scheduler: scheduler, mode: mode}
}

// Mode returns the mutex's configured mode.
func (m *Comutex) Mode() MutexMode { return m.mode }

// Owner returns the coroutine currently holding the lock, or nil.
func (m *Comutex) Owner() *Coroutine { return m.owner }

// LastYieldValue returns the value most recently delivered to a
// coroutine blocked inside Lock/TimedLock by a nested Resume call, so
// callers can forward data (e.g. a shutdown signal) to a coroutine that
// is currently contending for the lock.
func (m *Comutex) LastYieldValue() any { return m.lastYieldValue }

// TryLock attempts to acquire m for c without blocking. It returns
// StatusSuccess if m was free (or recursively owned by c), and
// StatusBusy if some other coroutine holds it or is ahead of c in the
// waiter queue.
func (m *Comutex) TryLock(c *Coroutine) (Status, error) {
	if c == nil {
		return StatusError, newOpError("trylock", StatusError, ErrNilTarget)
	}
	if m.owner == nil {
		if head := m.waiters.front(); head != nil && head != c {
			return StatusBusy, nil
		}
		m.owner = c
		m.recursionLevel = 1
		return StatusSuccess, nil
	}
	if m.owner == c {
		if m.mode&Recursive == 0 {
			return StatusBusy, nil
		}
		m.recursionLevel++
		return StatusSuccess, nil
	}
	return StatusBusy, nil
}

// Lock acquires m for c, yielding c (with the ResumeWait sentinel visible
// to whoever called Resume on c) for as long as it remains contended.
func (m *Comutex) Lock(c *Coroutine) (Status, error) {
	return m.lockLoop(c, 0, false)
}

// TimedLock acquires m for c, or gives up with StatusTimedOut once
// deadline (in the [NowNanoseconds] scale) has passed. It requires m to
// have been created with the Timed mode.
func (m *Comutex) TimedLock(c *Coroutine, deadline int64) (Status, error) {
	if m.mode&Timed == 0 {
		return StatusError, newOpError("timedlock", StatusError, ErrWrongMutexMode)
	}
	return m.lockLoop(c, deadline, true)
}

func (m *Comutex) lockLoop(c *Coroutine, deadline int64, timed bool) (Status, error) {
	if c == nil {
		return StatusError, newOpError("lock", StatusError, ErrNilTarget)
	}
	m.lastYieldValue = nil
	m.waiters.pushBack(c)
	c.blockingComutex = m
	defer func() {
		m.waiters.remove(c)
		c.blockingComutex = nil
	}()
	flag := yieldWait
	if timed {
		flag = yieldTimedWait
	}
	for {
		status, err := m.TryLock(c)
		if err != nil {
			return status, err
		}
		if status == StatusSuccess {
			return StatusSuccess, nil
		}
		if timed && deadlineExceeded(deadline) {
			return StatusTimedOut, nil
		}
		val, err := c.yieldInternal(nil, flag)
		if err != nil {
			return StatusError, err
		}
		m.lastYieldValue = val
	}
}

// Unlock releases one level of c's ownership of m. On a Plain mutex this
// always frees m; on a Recursive mutex it frees m only once the
// recursion level reaches zero. It is an error to call Unlock from a
// coroutine that does not currently own m.
func (m *Comutex) Unlock(c *Coroutine) (Status, error) {
	if m.owner != c {
		return StatusError, newOpError("unlock", StatusError, ErrNotOwner)
	}
	m.recursionLevel--
	if m.recursionLevel <= 0 {
		m.owner = nil
		m.recursionLevel = 0
		if m.scheduler != nil && m.scheduler.unlockCallback != nil {
			m.scheduler.unlockCallback(m.scheduler.stateData, m)
		}
	}
	return StatusSuccess, nil
}
