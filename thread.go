package coro

import "sync"

// ThreadHandle identifies one OS-thread-equivalent participant in a
// [ThreadGroup]: a long-lived goroutine running its own [Scheduler], with
// a thread-safe inbox other threads can deliver [Message] values to, per
// spec.md §4.8.
type ThreadHandle struct {
	id        int64
	scheduler *Scheduler
	inbox     *Queue
}

// ID returns the handle's identifier within its ThreadGroup.
func (h *ThreadHandle) ID() int64 { return h.id }

// Scheduler returns the handle's own coroutine scheduler.
func (h *ThreadHandle) Scheduler() *Scheduler { return h.scheduler }

// Inbox returns the handle's thread-safe message queue.
func (h *ThreadHandle) Inbox() *Queue { return h.inbox }

// ThreadGroup is a registry of [ThreadHandle]s that lets threads address
// one another by handle, the Go-native counterpart of spec.md §4.8's
// "optional multi-threaded mode".
type ThreadGroup struct {
	mu      sync.RWMutex
	threads map[int64]*ThreadHandle
	nextID  int64
}

// NewThreadGroup creates an empty registry.
func NewThreadGroup() *ThreadGroup {
	return &ThreadGroup{threads: make(map[int64]*ThreadHandle)}
}

// Register adopts an already-Configure'd scheduler as a new thread in the
// group and returns its handle. Most callers should use SpawnThread
// instead; Register exists for a goroutine that already called Configure
// for its own reasons and wants to join a group afterward.
func (g *ThreadGroup) Register(scheduler *Scheduler) *ThreadHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	h := &ThreadHandle{id: g.nextID, scheduler: scheduler, inbox: NewQueue(nil, ThreadSafe)}
	g.threads[h.id] = h
	return h
}

// Unregister removes h from the group. Safe to call more than once.
func (g *ThreadGroup) Unregister(h *ThreadHandle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.threads, h.id)
}

// SpawnThread starts fn on a new goroutine with its own [Scheduler],
// registers it in the group for the duration of fn, and unregisters it
// once fn returns — wrapping the entry function with inbox
// create/run/destroy exactly as spec.md §4.8 describes for a spawned OS
// thread. Configure is called from inside the spawned goroutine itself,
// not the caller, since a Scheduler may only be driven by the goroutine
// that configured it. SpawnThread blocks until that Configure call
// completes (or fails) and only then returns the handle; fn itself runs
// concurrently with the caller from that point on.
func (g *ThreadGroup) SpawnThread(opts []SchedulerOption, fn func(sched *Scheduler, handle *ThreadHandle)) (*ThreadHandle, error) {
	type ready struct {
		h   *ThreadHandle
		err error
	}
	readyCh := make(chan ready, 1)
	go func() {
		sched, err := Configure(opts...)
		if err != nil {
			readyCh <- ready{err: err}
			return
		}
		h := g.Register(sched)
		readyCh <- ready{h: h}
		defer g.Unregister(h)
		fn(sched, h)
	}()
	r := <-readyCh
	return r.h, r.err
}

// SendToThread delivers msg to target's inbox, recording from (the
// sending thread, if known) on msg via WithFromThread first, the
// thread-handle counterpart of SendTo's coroutine from parameter. Safe to
// call from any goroutine, including target's own.
func SendToThread(target *ThreadHandle, from *ThreadHandle, msg *Message) error {
	if target == nil {
		return newOpError("send-thread", StatusError, ErrNilTarget)
	}
	if from != nil {
		msg.WithFromThread(from)
	}
	return target.inbox.Push(msg)
}

// BroadcastToThreads fans a message out to every thread currently
// registered in the group. build is called once per recipient so each
// can get an independent Message value (e.g. distinct ReplyTo queues);
// it supplements spec.md §4.6's single-recipient delivery, modeled on the
// original implementation's coroutineBroadcastMessageToAllThreads, which
// spec.md's condensed table omits.
func (g *ThreadGroup) BroadcastToThreads(build func(h *ThreadHandle) *Message) {
	g.mu.RLock()
	targets := make([]*ThreadHandle, 0, len(g.threads))
	for _, h := range g.threads {
		targets = append(targets, h)
	}
	g.mu.RUnlock()
	for _, h := range targets {
		if msg := build(h); msg != nil {
			// No single sending thread to record here; build itself may
			// call msg.WithFromThread if the broadcaster wants one.
			_ = SendToThread(h, nil, msg)
		}
	}
}
