package coro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureAdoptsRoot(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	require.NotNil(t, sched.Root())
	assert.Equal(t, Running, sched.Root().State())
	assert.Same(t, sched.Root(), sched.Running())
	assert.Equal(t, defaultStackSize, sched.StackSize())
}

func TestCreateNilEntryPoint(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	c, err := sched.Create(nil)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrNilEntryPoint)
}

func TestResumeNilTarget(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	res, err := sched.Resume(nil, nil)
	assert.ErrorIs(t, err, ErrNilTarget)
	assert.Equal(t, ResumeError, res.Sentinel())
}

func TestResumeCorruptGuardDetected(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	c, err := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	require.NoError(t, err)

	c.guard1 = 0xdeadbeef // simulate stack-overflow corruption

	res, err := sched.Resume(c, nil)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, ResumeCorrupt, res.Sentinel())
}

func TestResumeNotResumableWhenAlreadyOnRunningStack(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)

	var selfResumeErr error
	c, err := sched.Create(func(s *Scheduler, self *Coroutine, arg any) any {
		_, selfResumeErr = s.Resume(self, nil)
		return nil
	})
	require.NoError(t, err)

	res, err := sched.Resume(c, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.ErrorIs(t, selfResumeErr, ErrNotResumable)
}

func TestYieldFromRootIsError(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	_, err = sched.Root().Yield(nil)
	assert.ErrorIs(t, err, ErrRootYield)
}

func TestResumeYieldRoundTrip(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)

	c, err := sched.Create(func(_ *Scheduler, self *Coroutine, arg any) any {
		got, err := self.Yield("first")
		if err != nil {
			return err
		}
		return got.(string) + ":" + arg.(string)
	})
	require.NoError(t, err)

	res, err := sched.Resume(c, "entry")
	require.NoError(t, err)
	assert.False(t, res.Completed())
	assert.Equal(t, "first", res.Value)
	assert.Equal(t, Blocked, c.State())

	res, err = sched.Resume(c, "resumed")
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.Equal(t, "resumed:entry", res.Value)
	assert.Equal(t, NotRunning, c.State())
	assert.False(t, c.Resumable()) // idle, not a leaf until reused by Create
}

func TestCoroutinePanicSurfacesAsOpError(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	boom := errors.New("boom")
	c, err := sched.Create(func(*Scheduler, *Coroutine, any) any {
		panic(boom)
	})
	require.NoError(t, err)

	res, err := sched.Resume(c, nil)
	require.Error(t, err)
	assert.True(t, res.Completed())
	assert.ErrorIs(t, err, boom)
}

// TestTerminateCleansUpMutexesAndInbox covers property 10 of spec.md §8.
func TestTerminateCleansUpMutexesAndInbox(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Plain)

	blocked, err := sched.Create(func(s *Scheduler, self *Coroutine, arg any) any {
		_ = self.Inbox().Push(NewMessage(1, "queued"))
		_, _ = mu.Lock(self)
		_, err := self.Yield(nil)
		if err != nil {
			return nil
		}
		return nil
	})
	require.NoError(t, err)

	owner, err := sched.Create(func(s *Scheduler, self *Coroutine, arg any) any {
		_, _ = mu.Lock(self)
		_, _ = self.Yield(nil)
		return nil
	})
	require.NoError(t, err)

	// owner takes the mutex first.
	_, err = sched.Resume(owner, nil)
	require.NoError(t, err)

	// blocked contends for it and parks in the waiter queue.
	res, err := sched.Resume(blocked, nil)
	require.NoError(t, err)
	assert.Equal(t, ResumeWait, res.Sentinel())
	assert.Same(t, mu, blocked.blockingComutex)

	status, err := sched.Terminate(blocked, mu)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	assert.Equal(t, NotRunning, blocked.State())
	assert.Nil(t, blocked.blockingComutex)
	assert.Nil(t, blocked.waitQueue)
	assert.Nil(t, blocked.inbox)
	assert.True(t, mu.waiters.empty())

	// Terminate is idempotent on an already-idle coroutine.
	status, err = sched.Terminate(blocked)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
}

func TestReconfigureUpdatesCallbacksOnly(t *testing.T) {
	sched, err := Configure(WithStackSize(64 * 1024))
	require.NoError(t, err)

	var called bool
	err = sched.Reconfigure(WithComutexUnlockCallback(func(any, *Comutex) { called = true }))
	require.NoError(t, err)
	assert.Equal(t, 64*1024, sched.StackSize())

	mu := NewComutex(sched, Plain)
	c, err := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	require.NoError(t, err)
	_, _ = mu.TryLock(c)
	_, _ = mu.Unlock(c)
	assert.True(t, called)
}

func TestReconfigureRejectsStackSizeChangeAfterChild(t *testing.T) {
	sched, err := Configure(WithStackSize(64 * 1024))
	require.NoError(t, err)
	_, err = sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	require.NoError(t, err)

	err = sched.Reconfigure(WithStackSize(128 * 1024))
	assert.ErrorIs(t, err, ErrStackSizeMismatch)
	assert.Equal(t, 64*1024, sched.StackSize())
}

// capturingLogger records every entry it is handed, for assertions that a
// particular category/message was (or wasn't) logged.
type capturingLogger struct {
	entries []LogEntry
}

func (l *capturingLogger) Log(entry LogEntry)      { l.entries = append(l.entries, entry) }
func (l *capturingLogger) IsEnabled(LogLevel) bool { return true }

// TestRoundRobinLogsDeadlockOnInterval covers the WithDeadlockCheckInterval
// contract: once two coroutines deadlock on each other's mutex, RoundRobin
// logs a "deadlock" warning for each instead of spinning forever silently.
func TestRoundRobinLogsDeadlockOnInterval(t *testing.T) {
	logger := &capturingLogger{}
	sched, err := Configure(WithDeadlockCheckInterval(1), WithLogger(logger))
	require.NoError(t, err)
	m1 := NewComutex(sched, Plain)
	m2 := NewComutex(sched, Plain)

	a, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		_, _ = m1.Lock(self)
		_, _ = self.Yield(nil)
		_, _ = m2.Lock(self)
		_, _ = self.Yield(nil)
		return nil
	})
	require.NoError(t, err)
	b, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		_, _ = m2.Lock(self)
		_, _ = self.Yield(nil)
		_, _ = m1.Lock(self)
		_, _ = self.Yield(nil)
		return nil
	})
	require.NoError(t, err)

	_, err = sched.Resume(a, nil)
	require.NoError(t, err)
	_, err = sched.Resume(b, nil)
	require.NoError(t, err)

	// Both coroutines now deadlock on each other's mutex; RoundRobin should
	// detect this instead of looping forever, since neither becomes
	// Resumable again without outside intervention (Terminate).
	sched.RoundRobin([]*Coroutine{a, b})

	var sawDeadlock bool
	for _, e := range logger.entries {
		if e.Category == "deadlock" {
			sawDeadlock = true
		}
	}
	assert.True(t, sawDeadlock)
}

// TestRoundRobinS1 is spec.md §8 scenario S1: three coroutines share one
// counter and one Comutex, incrementing it to 20000 under round-robin
// scheduling.
func TestRoundRobinS1(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Plain)

	const target = 20000
	counter := 0
	iterations := make([]int, 3)

	worker := func(idx int) EntryFunc {
		return func(_ *Scheduler, self *Coroutine, _ any) any {
			for {
				if _, err := mu.Lock(self); err != nil {
					return err
				}
				if counter >= target {
					_, _ = mu.Unlock(self)
					return nil
				}
				counter++
				iterations[idx]++
				if _, err := mu.Unlock(self); err != nil {
					return err
				}
				if counter >= target {
					return nil
				}
				if _, err := self.Yield(nil); err != nil {
					return nil
				}
			}
		}
	}

	coroutines := make([]*Coroutine, 3)
	for i := range coroutines {
		c, err := sched.Create(worker(i))
		require.NoError(t, err)
		coroutines[i] = c
	}

	sched.RoundRobin(coroutines)

	assert.Equal(t, target, counter)
	sum := 0
	for _, n := range iterations {
		sum += n
	}
	assert.Equal(t, target, sum)
	for _, c := range coroutines {
		assert.Equal(t, NotRunning, c.State())
	}
}
