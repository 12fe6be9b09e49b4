package coro

// Inbox returns c's message queue, creating it on first use.
func (c *Coroutine) Inbox() *Queue {
	if c.inbox == nil {
		c.inbox = NewQueue(c.scheduler, CoroutineSafe)
	}
	return c.inbox
}

// destroyInbox drops a completed/terminated coroutine's inbox reference,
// matching spec.md's "destroy the coroutine's message queue" step of
// cleanup on completion/termination. Any messages still queued are
// dropped with it.
func destroyInbox(c *Coroutine) {
	c.inbox = nil
}

// SendTo enqueues msg on target's inbox. from, if non-nil, is recorded on
// msg via WithFrom before sending.
func SendTo(target *Coroutine, from *Coroutine, msg *Message) error {
	if target == nil {
		return newOpError("send", StatusError, ErrNilTarget)
	}
	if from != nil {
		msg.WithFrom(from)
	}
	return target.Inbox().Push(msg)
}

// Receive blocks the calling coroutine (scheduler.Running()) until a
// message arrives on its own inbox, or deadline passes.
func Receive(sched *Scheduler, deadline int64) *Message {
	c := sched.Running()
	if c == nil {
		return nil
	}
	return c.Inbox().Wait(deadline)
}

// ReplyFrom identifies the expected sender of a reply message on a
// [WaitForReply]/[WaitForReplyOfType] call — spec.md's "from" is a tagged
// union of (coroutine handle) and (thread handle); exactly one of
// Coroutine/Thread should be set. The zero value matches any sender,
// for callers (e.g. a single-writer queue with no real multi-sender
// ambiguity) that don't need the filter.
type ReplyFrom struct {
	Coroutine *Coroutine
	Thread    *ThreadHandle
}

// ReplyFromCoroutine builds a ReplyFrom expecting the reply to have been
// sent by c.
func ReplyFromCoroutine(c *Coroutine) ReplyFrom { return ReplyFrom{Coroutine: c} }

// ReplyFromThread builds a ReplyFrom expecting the reply to have been
// sent by h.
func ReplyFromThread(h *ThreadHandle) ReplyFrom { return ReplyFrom{Thread: h} }

// matches reports whether msg's sender satisfies f. The zero ReplyFrom
// matches every message, unfiltered.
func (f ReplyFrom) matches(msg *Message) bool {
	switch {
	case f.Coroutine != nil:
		return msg.FromCoroutine == f.Coroutine
	case f.Thread != nil:
		return msg.FromThread == f.Thread
	default:
		return true
	}
}

// WaitForReply blocks on replyQueue (typically the calling coroutine's
// own inbox) for the first message whose sender matches from — spec.md's
// "blocks on the sender's reply queue for any message whose from equals
// the recipient of sent" — skipping past any unrelated message already
// queued (a stale reply, or one from an unrelated coroutine sharing the
// same queue) without disturbing its position for other readers.
func WaitForReply(replyQueue *Queue, from ReplyFrom, deadline int64) *Message {
	return replyQueue.waitMatching(deadline, from.matches)
}

// WaitForReplyOfType is WaitForReply additionally filtered to a specific
// MessageType, letting a caller that expects one of several reply shapes
// skip past unrelated messages already queued ahead of its reply.
func WaitForReplyOfType(replyQueue *Queue, from ReplyFrom, t MessageType, deadline int64) *Message {
	return replyQueue.waitMatching(deadline, func(m *Message) bool {
		return m.Type == t && from.matches(m)
	})
}
