package coro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageBuilderChaining(t *testing.T) {
	sched, err := Configure()
	assert.NoError(t, err)
	q := NewQueue(sched, ThreadSafe)

	from := &Coroutine{}
	msg := NewMessage(5, "payload").WithReplyTo(q).WithFrom(from)

	assert.Equal(t, MessageType(5), msg.Type)
	assert.Equal(t, "payload", msg.Data)
	assert.Same(t, q, msg.ReplyTo)
	assert.Same(t, from, msg.FromCoroutine)
	assert.Nil(t, msg.FromThread)
}
