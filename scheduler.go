package coro

import "sync"

// Scheduler owns one thread's worth of coroutine state: the calling
// goroutine's own root coroutine, the running-stack/idle-stack lists
// spec.md §3 describes, and the configuration resolved by Configure. A
// Scheduler must only be driven (Create/Resume/Terminate) from the
// goroutine that called Configure (or one of its descendants via nested
// Resume calls) — cross-thread interaction goes through [ThreadGroup]
// instead, matching spec.md §4.8.
type Scheduler struct {
	mu sync.Mutex // not taken by any method; inbox delivery and thread registration use the Queue and ThreadGroup locks

	id   int64
	root *Coroutine

	stackSize        int
	idlePoolSize     int
	stateData        any
	unlockCallback   func(stateData any, mtx *Comutex)
	signalCallback   func(stateData any, cond *Cocondition)
	logger           Logger
	deadlockInterval int64 // nanoseconds, 0 disables

	nextSeq      int64
	childCreated bool // set once Create has vended at least one coroutine

	runningStack []*Coroutine
	idleStack    []*Coroutine
}

var schedulerIDSeq struct {
	mu  sync.Mutex
	cur int64
}

func nextSchedulerID() int64 {
	schedulerIDSeq.mu.Lock()
	defer schedulerIDSeq.mu.Unlock()
	schedulerIDSeq.cur++
	return schedulerIDSeq.cur
}

// Configure adopts the calling goroutine as a scheduler's root coroutine
// and returns the scheduler handle, per spec.md §4.3's configure(). Each
// goroutine that wants its own coroutine group calls this once; the
// returned *Scheduler is then threaded explicitly (Design Notes: "a
// scheduler handle either implicit-by-thread or carried explicitly" —
// this module always carries it explicitly, since Go has no portable
// thread-local storage idiom as clean as an explicit parameter).
func Configure(opts ...SchedulerOption) (*Scheduler, error) {
	cfg, err := resolveSchedulerOptions(opts)
	if err != nil {
		return nil, newOpError("configure", StatusError, err)
	}
	s := &Scheduler{
		id:               nextSchedulerID(),
		stackSize:        cfg.stackSize,
		idlePoolSize:     cfg.idlePoolSize,
		stateData:        cfg.stateData,
		unlockCallback:   cfg.unlockCallback,
		signalCallback:   cfg.signalCallback,
		logger:           cfg.logger,
		deadlockInterval: int64(cfg.deadlockInterval),
	}
	s.root = newCoroutine(s, s.nextSeqNo())
	s.root.started = true
	s.root.inRunningList = true
	s.root.state.store(Running)
	s.runningStack = append(s.runningStack, s.root)
	s.fillIdlePool()
	return s, nil
}

func (s *Scheduler) nextSeqNo() int64 {
	s.nextSeq++
	return s.nextSeq
}

func (s *Scheduler) fillIdlePool() {
	for len(s.idleStack) < s.idlePoolSize {
		c := newCoroutine(s, s.nextSeqNo())
		c.inIdleList = true
		s.idleStack = append(s.idleStack, c)
	}
}

// StackSize returns the stack size bound recorded by Configure.
func (s *Scheduler) StackSize() int { return s.stackSize }

// Root returns the coroutine representing the goroutine that called
// Configure.
func (s *Scheduler) Root() *Coroutine { return s.root }

// Running returns the coroutine currently at the top of the running
// stack — the coroutine whose code is, transitively, calling this.
func (s *Scheduler) Running() *Coroutine {
	if len(s.runningStack) == 0 {
		return nil
	}
	return s.runningStack[len(s.runningStack)-1]
}

func (s *Scheduler) pushRunning(c *Coroutine) {
	c.inRunningList = true
	s.runningStack = append(s.runningStack, c)
}

func (s *Scheduler) popRunning(c *Coroutine) {
	for i := len(s.runningStack) - 1; i >= 0; i-- {
		if s.runningStack[i] == c {
			s.runningStack = append(s.runningStack[:i], s.runningStack[i+1:]...)
			break
		}
	}
	c.inRunningList = false
}

// Create pulls a coroutine from the idle pool (allocating one if the pool
// is empty) and associates it with fn. The coroutine does not begin
// executing until the first Resume, per spec.md §4.3.
func (s *Scheduler) Create(fn EntryFunc) (*Coroutine, error) {
	if fn == nil {
		return nil, newOpError("create", StatusError, ErrNilEntryPoint)
	}
	var c *Coroutine
	if n := len(s.idleStack); n > 0 {
		c = s.idleStack[n-1]
		s.idleStack = s.idleStack[:n-1]
	} else {
		c = newCoroutine(s, s.nextSeqNo())
	}
	c.inIdleList = false
	c.fn = fn
	c.started = false
	c.state.store(NotRunning)
	s.childCreated = true
	s.fillIdlePool()
	return c, nil
}

// Reconfigure updates a scheduler's state data, callbacks, logger, and
// deadlock-check interval in place, per spec.md §4.3's "re-calling
// [configure] updates root and callbacks only". Changing the stack size
// after any child has already been created is rejected with
// [ErrStackSizeMismatch], matching §4.2's "all fibers on one thread share
// a common stack size S fixed at configure-time and unchangeable once any
// child is created". Stack size and idle-pool size keep their current
// values unless opts sets them; the other settings return to their
// defaults when opts omits them.
func (s *Scheduler) Reconfigure(opts ...SchedulerOption) error {
	cfg, err := resolveSchedulerOptions(append([]SchedulerOption{WithStackSize(s.stackSize), WithIdlePoolSize(s.idlePoolSize)}, opts...))
	if err != nil {
		return newOpError("configure", StatusError, err)
	}
	if s.childCreated && cfg.stackSize != s.stackSize {
		return newOpError("configure", StatusError, ErrStackSizeMismatch)
	}
	if !s.childCreated {
		s.stackSize = cfg.stackSize
		s.idlePoolSize = cfg.idlePoolSize
		s.fillIdlePool()
	}
	s.stateData = cfg.stateData
	s.unlockCallback = cfg.unlockCallback
	s.signalCallback = cfg.signalCallback
	s.logger = cfg.logger
	s.deadlockInterval = int64(cfg.deadlockInterval)
	return nil
}

// Resume transfers control to c, passing arg as the value c's last Yield
// (or, on first Resume, its EntryFunc) receives, and blocks until c next
// yields or returns. See spec.md §4.3 for the full sentinel table.
func (s *Scheduler) Resume(c *Coroutine, arg any) (Result, error) {
	if c == nil {
		return Result{Status: StatusError, sentinel: ResumeError}, newOpError("resume", StatusError, ErrNilTarget)
	}
	if !c.valid() {
		return Result{Status: StatusError, sentinel: ResumeCorrupt}, newOpError("resume", StatusError, ErrCorrupt)
	}
	if c.onAnyList() {
		return Result{Status: StatusBusy, sentinel: ResumeNotResumable}, newOpError("resume", StatusBusy, ErrNotResumable)
	}
	s.pushRunning(c)
	msg := s.transferLogged(c, arg)
	s.popRunning(c)

	if msg.returned {
		c.state.store(NotRunning)
		c.fn = nil
		c.inIdleList = true
		s.idleStack = append(s.idleStack, c)
		destroyInbox(c)
		if msg.recovered != nil {
			return Result{Status: StatusError, completed: true}, newOpError("resume", StatusError, &panicError{msg.recovered})
		}
		return Result{Status: StatusSuccess, Value: msg.value, completed: true}, nil
	}

	switch msg.flag {
	case yieldWait:
		return Result{Status: StatusBusy, sentinel: ResumeWait, Value: msg.value}, nil
	case yieldTimedWait:
		return Result{Status: StatusBusy, sentinel: ResumeTimedWait, Value: msg.value}, nil
	default:
		return Result{Status: StatusSuccess, Value: msg.value}, nil
	}
}

func (s *Scheduler) transferLogged(c *Coroutine, arg any) yieldMsg {
	if s.logger != nil && s.logger.IsEnabled(LevelDebug) {
		logf(s.logger, LevelDebug, "scheduler", s.id, c.seq, nil, nil, "resume")
	}
	return c.transfer(arg)
}

// panicError wraps a recovered panic value so it can travel through the
// standard error machinery.
type panicError struct{ v any }

func (p *panicError) Error() string { return "coroutine panicked" }
func (p *panicError) Unwrap() error {
	if err, ok := p.v.(error); ok {
		return err
	}
	return nil
}

// Terminate forcibly returns a blocked coroutine to NotRunning, unlocking
// any of mutexes it currently owns, per spec.md §4.3. Only coroutines in
// state Blocked or NotRunning may be terminated. Terminate is a no-op for
// a coroutine already back in the idle pool; a coroutine created but never
// resumed is returned to the idle pool. A coroutine in state Running is an active goroutine
// executing real code somewhere in the current call chain, and Go gives
// no portable way to unwind that from the outside without its own
// cooperation — the same restriction implied by spec.md's own Non-goal on
// await-point cancellation.
func (s *Scheduler) Terminate(c *Coroutine, mutexes ...*Comutex) (Status, error) {
	if c == nil {
		return StatusError, newOpError("terminate", StatusError, ErrNilTarget)
	}
	if !c.valid() {
		return StatusError, newOpError("terminate", StatusError, ErrCorrupt)
	}
	if c.State() == NotRunning && c.inIdleList {
		return StatusSuccess, nil
	}
	if c.State() == Running {
		return StatusError, newOpError("terminate", StatusError, ErrInvalidState)
	}

	if c.waitQueue != nil {
		c.waitQueue.remove(c)
	}
	c.blockingComutex = nil
	c.blockingCocondition = nil
	for _, m := range mutexes {
		if m != nil && m.owner == c {
			m.owner = nil
			m.recursionLevel = 0
			if m.scheduler != nil && m.scheduler.unlockCallback != nil {
				m.scheduler.unlockCallback(m.scheduler.stateData, m)
			}
		}
	}

	s.pushRunning(c)
	msg := c.transfer(terminateToken{})
	s.popRunning(c)
	_ = msg

	c.state.store(NotRunning)
	c.fn = nil
	c.inIdleList = true
	s.idleStack = append(s.idleStack, c)
	destroyInbox(c)
	return StatusSuccess, nil
}

// RoundRobin repeatedly resumes every resumable coroutine in coroutines,
// passing nil as each resume argument, until a full pass makes no
// progress (every coroutine is either finished or genuinely blocked on a
// primitive with no pending wakeup). It is a convenience helper for the
// common pattern in spec.md §4.3 of driving a fixed set of coroutines to
// completion; applications with custom fairness needs can call Resume
// directly instead.
func (s *Scheduler) RoundRobin(coroutines []*Coroutine) {
	var lastDeadlockCheck int64
	for {
		progressed := false
		for _, c := range coroutines {
			if !c.Resumable() {
				continue
			}
			res, err := s.Resume(c, nil)
			if err != nil && res.Sentinel() != ResumeWait && res.Sentinel() != ResumeTimedWait {
				continue
			}
			progressed = true
		}
		if s.deadlockInterval > 0 {
			now := NowNanoseconds()
			if now-lastDeadlockCheck >= s.deadlockInterval {
				lastDeadlockCheck = now
				s.checkDeadlocks(coroutines)
			}
		}
		if !progressed {
			return
		}
	}
}

// checkDeadlocks scans coroutines for those blocked in a mutex-ownership
// cycle and logs one warning per deadlocked coroutine found, per
// [WithDeadlockCheckInterval]'s documented contract. Detection is purely
// advisory: the caller's remedy remains Terminate, same as a manual
// Deadlocked call.
func (s *Scheduler) checkDeadlocks(coroutines []*Coroutine) {
	if s.logger == nil || !s.logger.IsEnabled(LevelWarn) {
		return
	}
	for _, c := range coroutines {
		if c.State() == Blocked && Deadlocked(c) {
			logf(s.logger, LevelWarn, "deadlock", s.id, c.seq, nil, nil, "coroutine blocked in a mutex-ownership cycle")
		}
	}
}
