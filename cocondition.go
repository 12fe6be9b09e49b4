package coro

// Cocondition is a cooperative condition variable scoped to coroutines on
// a single [Scheduler], per spec.md §4.5. Signal/Broadcast wake waiters
// in FIFO order: the coroutine that has been waiting longest is always
// the first to consume a pending signal, mirroring Comutex's fairness
// guarantee.
type Cocondition struct {
	scheduler      *Scheduler
	waiters        waiterQueue
	numWaiters     int
	numSignals     int
	lastYieldValue any
}

// NewCocondition creates a Cocondition bound to scheduler for its signal
// callback.
func NewCocondition(scheduler *Scheduler) *Cocondition {
	return &Cocondition{scheduler: scheduler}
}

// NumWaiters returns the number of coroutines currently blocked in Wait
// or TimedWait.
func (cond *Cocondition) NumWaiters() int { return cond.numWaiters }

// LastYieldValue returns the value most recently delivered to a
// coroutine blocked inside Wait/TimedWait by a nested Resume call.
func (cond *Cocondition) LastYieldValue() any { return cond.lastYieldValue }

// Wait atomically unlocks mtx, blocks c until signaled, and relocks mtx
// before returning, per the standard condition-variable contract.
func (cond *Cocondition) Wait(c *Coroutine, mtx *Comutex) (Status, error) {
	return cond.waitLoop(c, mtx, 0, false)
}

// TimedWait is Wait with a deadline (in the [NowNanoseconds] scale);
// mtx is relocked on every exit path, including StatusTimedOut.
func (cond *Cocondition) TimedWait(c *Coroutine, mtx *Comutex, deadline int64) (Status, error) {
	return cond.waitLoop(c, mtx, deadline, true)
}

func (cond *Cocondition) waitLoop(c *Coroutine, mtx *Comutex, deadline int64, timed bool) (Status, error) {
	if c == nil || mtx == nil {
		return StatusError, newOpError("wait", StatusError, ErrNilTarget)
	}
	if _, err := mtx.Unlock(c); err != nil {
		return StatusError, err
	}
	cond.lastYieldValue = nil
	cond.waiters.pushBack(c)
	cond.numWaiters++
	c.blockingCocondition = cond
	flag := yieldWait
	if timed {
		flag = yieldTimedWait
	}
	status := StatusSuccess
	for {
		if timed && deadlineExceeded(deadline) {
			cond.numWaiters--
			cond.waiters.remove(c)
			c.blockingCocondition = nil
			status = StatusTimedOut
			break
		}
		val, err := c.yieldInternal(nil, flag)
		if err != nil {
			cond.numWaiters--
			cond.waiters.remove(c)
			c.blockingCocondition = nil
			_, _ = mtx.Lock(c)
			return StatusError, err
		}
		cond.lastYieldValue = val
		if cond.numSignals > 0 && cond.waiters.front() == c {
			cond.numSignals--
			cond.numWaiters--
			cond.waiters.remove(c)
			c.blockingCocondition = nil
			status = StatusSuccess
			break
		}
		// Spurious wake, or a signal is pending for an earlier waiter:
		// go back to sleep.
	}
	if _, err := mtx.Lock(c); err != nil {
		return StatusError, err
	}
	return status, nil
}

// Signal wakes the longest-waiting coroutine blocked in Wait/TimedWait,
// if any. Signaling with no waiters is a harmless no-op, matching
// pthread_cond_signal's own documented behavior.
func (cond *Cocondition) Signal() (Status, error) {
	if cond.numWaiters > cond.numSignals {
		cond.numSignals++
	}
	if cond.scheduler != nil && cond.scheduler.signalCallback != nil {
		cond.scheduler.signalCallback(cond.scheduler.stateData, cond)
	}
	return StatusSuccess, nil
}

// Broadcast wakes every coroutine currently blocked in Wait/TimedWait.
func (cond *Cocondition) Broadcast() (Status, error) {
	cond.numSignals = cond.numWaiters
	if cond.scheduler != nil && cond.scheduler.signalCallback != nil {
		cond.scheduler.signalCallback(cond.scheduler.stateData, cond)
	}
	return StatusSuccess, nil
}
