package coro

import (
	"sync"
	"time"
)

// Mutex and Cond are the Go-native shape of spec.md §6's mtx_*/cnd_*
// backend vtable: a queue built for cross-thread use needs OS-level
// blocking (a real goroutine parks), while a queue built for
// coroutine-to-coroutine use needs cooperative blocking (the calling
// coroutine yields). Both satisfy the same two interfaces so [Queue] can
// be written once and parameterized by [SafetyClass].
type Mutex interface {
	Lock() (Status, error)
	TryLock() (Status, error)
	Unlock() (Status, error)
}

type Cond interface {
	Wait(m Mutex) (Status, error)
	// TimedWait behaves like Wait but returns StatusTimedOut once
	// deadline (in the NowNanoseconds scale) has passed without a
	// satisfying signal. A zero deadline means wait forever.
	TimedWait(m Mutex, deadline int64) (Status, error)
	Signal() (Status, error)
	Broadcast() (Status, error)
}

// SyncPrimitives constructs a matched Mutex/Cond pair for one
// [SafetyClass]. NewCond takes the Mutex its Cond will be used alongside
// (the same value a caller will Lock/Unlock around Wait/TimedWait calls)
// so a backend that needs its Cond bound to one specific underlying lock
// at construction time (sync.Cond) can share it, rather than each side
// independently constructing its own.
type SyncPrimitives interface {
	NewMutex() Mutex
	NewCond(m Mutex) Cond
}

// coroutinePrimitives builds Mutex/Cond backed by [Comutex]/[Cocondition],
// using scheduler.Running() as the implicit "calling coroutine" — the
// same implicit-current-thread convention spec.md's mtx_lock/cnd_wait use.
type coroutinePrimitives struct {
	scheduler *Scheduler
}

func (p *coroutinePrimitives) NewMutex() Mutex {
	return &coroutineMutex{scheduler: p.scheduler, m: NewComutex(p.scheduler, Plain)}
}

// NewCond ignores m: a coroutineCond's Wait/TimedWait take their mutex
// explicitly on every call (mirroring cnd_wait(cnd, mtx)), so there is no
// need to bind it to one particular Mutex up front.
func (p *coroutinePrimitives) NewCond(_ Mutex) Cond {
	return &coroutineCond{scheduler: p.scheduler, c: NewCocondition(p.scheduler)}
}

type coroutineMutex struct {
	scheduler *Scheduler
	m         *Comutex
}

func (w *coroutineMutex) Lock() (Status, error)    { return w.m.Lock(w.scheduler.Running()) }
func (w *coroutineMutex) TryLock() (Status, error) { return w.m.TryLock(w.scheduler.Running()) }
func (w *coroutineMutex) Unlock() (Status, error)   { return w.m.Unlock(w.scheduler.Running()) }

type coroutineCond struct {
	scheduler *Scheduler
	c         *Cocondition
}

func (w *coroutineCond) Wait(m Mutex) (Status, error) {
	cm, ok := m.(*coroutineMutex)
	if !ok {
		return StatusError, newOpError("wait", StatusError, ErrWrongMutexMode)
	}
	return w.c.Wait(w.scheduler.Running(), cm.m)
}
func (w *coroutineCond) TimedWait(m Mutex, deadline int64) (Status, error) {
	cm, ok := m.(*coroutineMutex)
	if !ok {
		return StatusError, newOpError("timedwait", StatusError, ErrWrongMutexMode)
	}
	if deadline == 0 {
		return w.c.Wait(w.scheduler.Running(), cm.m)
	}
	return w.c.TimedWait(w.scheduler.Running(), cm.m, deadline)
}
func (w *coroutineCond) Signal() (Status, error)    { return w.c.Signal() }
func (w *coroutineCond) Broadcast() (Status, error) { return w.c.Broadcast() }

// osPrimitives builds Mutex/Cond backed by sync.Mutex/sync.Cond, for
// queues that real OS threads (rather than coroutines) contend on, per
// spec.md §4.8's cross-thread delivery.
type osPrimitives struct{}

func (osPrimitives) NewMutex() Mutex { return &osMutex{} }

// NewCond binds its sync.Cond to m's own *sync.Mutex, so the Cond wakes
// and reacquires the exact lock the caller holds around Wait/TimedWait —
// m must be a Mutex built by this same osPrimitives (NewQueue guarantees
// this by always sourcing a Queue's cond/room from its own mu).
func (osPrimitives) NewCond(m Mutex) Cond {
	om, ok := m.(*osMutex)
	if !ok {
		om = &osMutex{}
	}
	return &osCond{mu: &om.mu, cond: sync.NewCond(&om.mu)}
}

type osMutex struct {
	mu sync.Mutex
}

func (m *osMutex) Lock() (Status, error) { m.mu.Lock(); return StatusSuccess, nil }
func (m *osMutex) TryLock() (Status, error) {
	if m.mu.TryLock() {
		return StatusSuccess, nil
	}
	return StatusBusy, nil
}
func (m *osMutex) Unlock() (Status, error) { m.mu.Unlock(); return StatusSuccess, nil }

type osCond struct {
	mu   *sync.Mutex
	cond *sync.Cond
}

// Wait blocks on the condition's bound lock, which [osPrimitives.NewCond]
// guarantees is m's own *sync.Mutex: the caller must hold m locked when
// calling Wait, exactly as sync.Cond requires, and will find it relocked
// again on return.
func (c *osCond) Wait(m Mutex) (Status, error) {
	c.cond.Wait()
	return StatusSuccess, nil
}

// TimedWait has no native sync.Cond equivalent, so it arms a timer that
// broadcasts the condition once the deadline passes; callers always
// recheck their predicate after waking (spurious or timed), so the extra
// wakeup this causes for other waiters is harmless.
func (c *osCond) TimedWait(m Mutex, deadline int64) (Status, error) {
	if deadline == 0 {
		return c.Wait(m)
	}
	remaining := time.Duration(deadline - NowNanoseconds())
	if remaining <= 0 {
		return StatusTimedOut, nil
	}
	timer := time.AfterFunc(remaining, func() { c.cond.Broadcast() })
	defer timer.Stop()
	c.cond.Wait()
	if deadlineExceeded(deadline) {
		return StatusTimedOut, nil
	}
	return StatusSuccess, nil
}
func (c *osCond) Signal() (Status, error)    { c.cond.Signal(); return StatusSuccess, nil }
func (c *osCond) Broadcast() (Status, error) { c.cond.Broadcast(); return StatusSuccess, nil }
