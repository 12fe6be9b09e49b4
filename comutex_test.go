package coro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComutexTryLockPlain(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Plain)

	a, err := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	require.NoError(t, err)
	b, err := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	require.NoError(t, err)

	status, err := mu.TryLock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Same(t, a, mu.Owner())

	// Plain mode: even the owner itself is refused a second lock.
	status, err = mu.TryLock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, status)

	status, err = mu.TryLock(b)
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, status)

	status, err = mu.Unlock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Nil(t, mu.Owner())
}

func TestComutexUnlockByNonOwner(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Plain)
	a, _ := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })
	b, _ := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })

	_, _ = mu.TryLock(a)
	_, err = mu.Unlock(b)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestComutexRecursive(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Recursive)
	a, _ := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })

	status, err := mu.TryLock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	status, err = mu.TryLock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 2, mu.recursionLevel)

	status, err = mu.Unlock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Same(t, a, mu.Owner()) // still held, one level remains

	status, err = mu.Unlock(a)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Nil(t, mu.Owner())
}

func TestComutexTimedLockRejectedWithoutTimedMode(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Plain)
	a, _ := sched.Create(func(*Scheduler, *Coroutine, any) any { return nil })

	_, err = mu.TimedLock(a, DeadlineFromNow(time.Millisecond))
	assert.ErrorIs(t, err, ErrWrongMutexMode)
}

// TestComutexFIFOFairness is spec.md §8 property 4: coroutines attempting
// Lock in order A, B, C while the mutex is held must acquire in that same
// order.
func TestComutexFIFOFairness(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Plain)

	var order []string

	holder, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		if _, err := mu.Lock(self); err != nil {
			return err
		}
		_, _ = self.Yield(nil)
		_, _ = mu.Unlock(self)
		return nil
	})
	require.NoError(t, err)

	mkWaiter := func(name string) EntryFunc {
		return func(_ *Scheduler, self *Coroutine, _ any) any {
			if _, err := mu.Lock(self); err != nil {
				return err
			}
			order = append(order, name)
			if _, err := mu.Unlock(self); err != nil {
				return err
			}
			return nil
		}
	}
	a, _ := sched.Create(mkWaiter("A"))
	b, _ := sched.Create(mkWaiter("B"))
	c, _ := sched.Create(mkWaiter("C"))

	// holder takes the mutex and parks, holding it.
	res, err := sched.Resume(holder, nil)
	require.NoError(t, err)
	assert.False(t, res.Completed())

	// A, B, C queue up, in that order, each parking on contention.
	for _, waiter := range []*Coroutine{a, b, c} {
		res, err := sched.Resume(waiter, nil)
		require.NoError(t, err)
		assert.Equal(t, ResumeWait, res.Sentinel())
	}
	require.Equal(t, 3, mu.waiters.size())
	assert.Same(t, a, mu.waiters.front())

	// holder finishes and releases the mutex; nobody is auto-woken.
	res, err = sched.Resume(holder, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.Nil(t, mu.Owner())

	// Each resumed waiter retries TryLock; since only the queue head can
	// ever succeed, acquisition order matches arrival order.
	for _, waiter := range []*Coroutine{a, b, c} {
		res, err := sched.Resume(waiter, nil)
		require.NoError(t, err)
		assert.True(t, res.Completed())
	}

	assert.Equal(t, []string{"A", "B", "C"}, order)
}

// TestComutexTimedLockTimeout is spec.md §8 scenario S3.
func TestComutexTimedLockTimeout(t *testing.T) {
	sched, err := Configure()
	require.NoError(t, err)
	mu := NewComutex(sched, Timed)

	holder, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		if _, err := mu.Lock(self); err != nil {
			return err
		}
		_, _ = self.Yield(nil)
		return nil
	})
	require.NoError(t, err)

	const budget = 100 * time.Millisecond
	var gotStatus Status
	contender, err := sched.Create(func(_ *Scheduler, self *Coroutine, _ any) any {
		status, err := mu.TimedLock(self, DeadlineFromNow(budget))
		if err != nil {
			return err
		}
		gotStatus = status
		return status
	})
	require.NoError(t, err)

	res, err := sched.Resume(holder, nil)
	require.NoError(t, err)
	assert.False(t, res.Completed())

	res, err = sched.Resume(contender, nil)
	require.NoError(t, err)
	assert.Equal(t, ResumeTimedWait, res.Sentinel())

	start := time.Now()
	for {
		res, err = sched.Resume(contender, nil)
		require.NoError(t, err)
		if res.Completed() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	elapsed := time.Since(start)

	assert.Equal(t, StatusTimedOut, gotStatus)
	assert.GreaterOrEqual(t, elapsed, budget-10*time.Millisecond)
}
