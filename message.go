package coro

// MessageType is an application-defined tag used to filter a [Queue] by
// PopType/WaitForType, per spec.md §4.6.
type MessageType int64

// Message is one entry in a coroutine's or thread's inbox. It is a plain
// data carrier: the blocking semantics (wait for arrival, wait for a
// particular type) live entirely in [Queue], not in Message itself, so a
// Message can be safely handed across coroutine and thread boundaries
// without its own synchronization.
type Message struct {
	Type MessageType
	Data any

	// From identifies the sender, when known. At most one of FromCoroutine
	// or FromThread is set; both are nil when the sender was not recorded.
	FromCoroutine *Coroutine
	FromThread    *ThreadHandle

	// ReplyTo is the queue a response should be pushed onto, if the
	// sender expects one. nil means no reply is expected.
	ReplyTo *Queue

	next *Message
}

// NewMessage constructs a Message ready to Push onto a [Queue].
func NewMessage(msgType MessageType, data any) *Message {
	return &Message{Type: msgType, Data: data}
}

// WithReplyTo sets ReplyTo and returns msg, for chaining at the call
// site of Push.
func (msg *Message) WithReplyTo(q *Queue) *Message {
	msg.ReplyTo = q
	return msg
}

// WithFrom records the sending coroutine and returns msg.
func (msg *Message) WithFrom(c *Coroutine) *Message {
	msg.FromCoroutine = c
	return msg
}

// WithFromThread records the sending thread handle and returns msg, the
// thread-handle counterpart of WithFrom for messages sent via
// [SendToThread]/[ThreadGroup.BroadcastToThreads].
func (msg *Message) WithFromThread(h *ThreadHandle) *Message {
	msg.FromThread = h
	return msg
}
