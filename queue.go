package coro

// SafetyClass selects which [SyncPrimitives] backend a [Queue] uses, per
// spec.md §6: CoroutineSafe queues (a coroutine's own inbox) block by
// yielding the calling coroutine; ThreadSafe queues (a [ThreadHandle]'s
// inbox, used for cross-thread delivery) block a real OS-level goroutine
// via sync.Mutex/sync.Cond.
type SafetyClass int

const (
	CoroutineSafe SafetyClass = iota
	ThreadSafe
)

// queueConfig holds Queue construction options.
type queueConfig struct {
	maxLen int // 0 means unbounded
}

// QueueOption configures a [Queue] at construction.
type QueueOption func(*queueConfig)

// WithMaxLen bounds a Queue's length; PushTimed on a full queue blocks
// (or times out) instead of growing unboundedly, per SPEC_FULL.md §5's
// supplement of the original's messageBlockCount/timeout-aware push.
// Push (spec.md's unbounded push) ignores this bound.
func WithMaxLen(n int) QueueOption {
	return func(c *queueConfig) {
		if n > 0 {
			c.maxLen = n
		}
	}
}

// Queue is a FIFO of [Message] values with typed peek/pop/wait, per
// spec.md §4.6. It is the concrete type behind a coroutine's inbox
// ([Coroutine.Inbox]) and a thread's inbox ([ThreadHandle]).
type Queue struct {
	safety SafetyClass
	maxLen int

	mu   Mutex
	cond Cond // bound to mu; signaled on push, for Wait/WaitForType
	room Cond // bound to mu; signaled on pop, for PushTimed against maxLen

	head, tail *Message
	len        int
}

// NewQueue constructs an empty Queue. scheduler is used only when safety
// is CoroutineSafe, to resolve the calling coroutine for blocking ops.
func NewQueue(scheduler *Scheduler, safety SafetyClass, opts ...QueueOption) *Queue {
	cfg := &queueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	var prims SyncPrimitives
	if safety == ThreadSafe {
		prims = osPrimitives{}
	} else {
		prims = &coroutinePrimitives{scheduler: scheduler}
	}
	mu := prims.NewMutex()
	return &Queue{
		safety: safety,
		maxLen: cfg.maxLen,
		mu:     mu,
		cond:   prims.NewCond(mu), // signaled on push
		room:   prims.NewCond(mu), // signaled on pop, guards the same mu
	}
}

// Len returns the number of messages currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len
}

// Push appends msg unconditionally, per spec.md's unbounded push.
func (q *Queue) Push(msg *Message) error {
	if msg == nil {
		return newOpError("push", StatusError, ErrNilTarget)
	}
	q.mu.Lock()
	q.pushLocked(msg)
	q.mu.Unlock()
	q.cond.Broadcast()
	return nil
}

// PushTimed appends msg, blocking until the queue has room (per
// WithMaxLen) or deadline passes, in which case it returns StatusTimedOut
// without enqueuing msg.
func (q *Queue) PushTimed(msg *Message, deadline int64) (Status, error) {
	if msg == nil {
		return StatusError, newOpError("push", StatusError, ErrNilTarget)
	}
	if q.maxLen == 0 {
		return StatusSuccess, q.Push(msg)
	}
	q.mu.Lock()
	for q.len >= q.maxLen {
		if deadline != 0 && deadlineExceeded(deadline) {
			q.mu.Unlock()
			return StatusTimedOut, nil
		}
		if _, err := q.room.TimedWait(q.mu, deadline); err != nil {
			q.mu.Unlock()
			return StatusError, err
		}
	}
	q.pushLocked(msg)
	q.mu.Unlock()
	q.cond.Broadcast()
	return StatusSuccess, nil
}

func (q *Queue) pushLocked(msg *Message) {
	msg.next = nil
	if q.tail != nil {
		q.tail.next = msg
	} else {
		q.head = msg
	}
	q.tail = msg
	q.len++
}

// Peek returns the head message without removing it, or nil if empty.
func (q *Queue) Peek() *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head
}

// Pop removes and returns the head message, or nil if empty.
func (q *Queue) Pop() *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked(nil)
}

// PopType removes and returns the first message matching t, preserving
// the relative order of messages behind it, or nil if none match.
func (q *Queue) PopType(t MessageType) *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked(matchType(t))
}

// matchFunc is an internal filter predicate over queued messages: used to
// generalize the public Type-only filtering (PopType/WaitForType) to the
// sender-aware filtering WaitForReply/WaitForReplyOfType need but
// spec.md's public queue surface (peek/pop/pop_type/wait/wait_for_type)
// does not expose.
type matchFunc func(*Message) bool

func matchType(t MessageType) matchFunc {
	return func(m *Message) bool { return m.Type == t }
}

// popLocked must be called with q.mu held. If match is nil it pops the
// head unconditionally; otherwise it pops the first message satisfying
// match.
func (q *Queue) popLocked(match matchFunc) *Message {
	var prev *Message
	for cur := q.head; cur != nil; cur = cur.next {
		if match != nil && !match(cur) {
			prev = cur
			continue
		}
		if prev != nil {
			prev.next = cur.next
		} else {
			q.head = cur.next
		}
		if cur == q.tail {
			q.tail = prev
		}
		cur.next = nil
		q.len--
		q.room.Broadcast()
		return cur
	}
	return nil
}

// Wait blocks until the queue is non-empty, or deadline (in the
// NowNanoseconds scale; zero means forever) passes, then pops and
// returns the head message, or nil on timeout.
func (q *Queue) Wait(deadline int64) *Message {
	return q.waitLoop(deadline, nil)
}

// WaitForType is Wait filtered to messages of type t, preserving the
// order of messages of other types ahead of and behind the match.
func (q *Queue) WaitForType(t MessageType, deadline int64) *Message {
	return q.waitLoop(deadline, matchType(t))
}

// waitMatching is waitLoop with an arbitrary predicate, underlying the
// sender-filtered reply-wait helpers in inbox.go.
func (q *Queue) waitMatching(deadline int64, match matchFunc) *Message {
	return q.waitLoop(deadline, match)
}

func (q *Queue) waitLoop(deadline int64, match matchFunc) *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if msg := q.popLocked(match); msg != nil {
			return msg
		}
		if deadline != 0 && deadlineExceeded(deadline) {
			return nil
		}
		status, err := q.cond.TimedWait(q.mu, deadline)
		if err != nil || status == StatusTimedOut {
			return nil
		}
	}
}
