package coro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlockedFalseForFreshCoroutine(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	c, err := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	require.NoError(t, err)
	assert.False(t, Deadlocked(c))
	assert.False(t, Deadlocked(nil))
}

// TestDeadlockDetectionAndRecovery is spec.md §8 scenario S6 / property 11:
// A holds M1 and wants M2; B holds M2 and wants M1. Both report deadlocked
// until A is terminated with both mutexes, after which B completes and
// both mutexes end unlocked.
func TestDeadlockDetectionAndRecovery(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	m1 := NewComutex(sched, Plain)
	m2 := NewComutex(sched, Plain)

	a, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		if _, err := m1.Lock(self); err != nil {
			return err
		}
		if _, err := self.Yield(nil); err != nil {
			return nil
		}
		if _, err := m2.Lock(self); err != nil {
			return err
		}
		if _, err := self.Yield(nil); err != nil {
			return nil
		}
		_, _ = m2.Unlock(self)
		_, _ = m1.Unlock(self)
		return nil
	})
	require.NoError(t, err)

	b, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		if _, err := m2.Lock(self); err != nil {
			return err
		}
		if _, err := self.Yield(nil); err != nil {
			return nil
		}
		if _, err := m1.Lock(self); err != nil {
			return err
		}
		if _, err := self.Yield(nil); err != nil {
			return nil
		}
		_, _ = m1.Unlock(self)
		_, _ = m2.Unlock(self)
		return nil
	})
	require.NoError(t, err)

	// A takes M1, B takes M2.
	res, err := sched.Resume(a, nil)
	require.NoError(t, err)
	assert.False(t, res.Completed())
	res, err = sched.Resume(b, nil)
	require.NoError(t, err)
	assert.False(t, res.Completed())

	// A wants M2 (held by B) and blocks; B wants M1 (held by A) and blocks.
	res, err = sched.Resume(a, nil)
	require.NoError(t, err)
	assert.Equal(t, ResumeWait, res.Sentinel())
	res, err = sched.Resume(b, nil)
	require.NoError(t, err)
	assert.Equal(t, ResumeWait, res.Sentinel())

	assert.True(t, Deadlocked(a))
	assert.True(t, Deadlocked(b))

	status, err := sched.Terminate(a, m1, m2)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Nil(t, m1.Owner())

	assert.False(t, Deadlocked(b))

	// B can now make progress: it acquires M1, then unlocks both.
	res, err = sched.Resume(b, nil)
	require.NoError(t, err)
	assert.False(t, res.Completed())

	res, err = sched.Resume(b, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed())

	assert.Nil(t, m1.Owner())
	assert.Nil(t, m2.Owner())
}
