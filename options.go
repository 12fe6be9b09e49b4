// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coro

import "time"

const (
	// defaultStackSize is the stack-size floor spec.md §4.3 requires
	// Configure to clamp to.
	defaultStackSize = 16 * 1024
	// defaultIdlePoolSize is "exactly one idle coroutine" per spec.md §4.2.
	defaultIdlePoolSize = 1
)

// schedulerOptions holds configuration for Configure/Reconfigure.
type schedulerOptions struct {
	stackSize        int
	idlePoolSize     int
	stateData        any
	unlockCallback   func(stateData any, mtx *Comutex)
	signalCallback   func(stateData any, cond *Cocondition)
	logger           Logger
	deadlockInterval time.Duration
}

// --- Scheduler Options ---

// SchedulerOption configures a [Scheduler] via [Configure] or
// [Scheduler.Reconfigure].
type SchedulerOption interface {
	applyScheduler(*schedulerOptions) error
}

// schedulerOptionFunc implements SchedulerOption.
type schedulerOptionFunc struct {
	apply func(*schedulerOptions) error
}

func (f *schedulerOptionFunc) applyScheduler(opts *schedulerOptions) error {
	return f.apply(opts)
}

// WithStackSize sets the desired per-coroutine stack size, in bytes. It is
// clamped to a default minimum, matching spec.md §4.3. The value is
// advisory bookkeeping (see SPEC_FULL.md §1): Go goroutine stacks grow and
// shrink on their own, but the value is fixed at Configure time and
// checked against by Scheduler.Reconfigure, per spec.md's "fails
// if any child has already been created on this thread with a different
// stack size".
func WithStackSize(bytes int) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		if bytes < defaultStackSize {
			bytes = defaultStackSize
		}
		opts.stackSize = bytes
		return nil
	}}
}

// WithStateData sets the opaque pointer handed to the unlock and signal
// callbacks.
func WithStateData(stateData any) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		opts.stateData = stateData
		return nil
	}}
}

// WithComutexUnlockCallback registers a callback invoked each time a
// Comutex owned by a coroutine on this scheduler transitions to unlocked.
func WithComutexUnlockCallback(cb func(stateData any, mtx *Comutex)) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		opts.unlockCallback = cb
		return nil
	}}
}

// WithCoconditionSignalCallback registers a callback invoked on every
// Signal/Broadcast of a Cocondition whose waiters run on this scheduler.
func WithCoconditionSignalCallback(cb func(stateData any, cond *Cocondition)) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		opts.signalCallback = cb
		return nil
	}}
}

// WithIdlePoolSize sets how many idle coroutines are kept primed ahead of
// demand (SPEC_FULL.md §5, supplementing spec.md's fixed "exactly one").
// Values less than 1 are clamped to 1.
func WithIdlePoolSize(n int) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		if n < 1 {
			n = 1
		}
		opts.idlePoolSize = n
		return nil
	}}
}

// WithLogger attaches a [Logger] for the scheduler's own events (resume
// tracing and RoundRobin's deadlock warnings); Comutex, Cocondition and
// Queue do not log. The default is [NewNoOpLogger].
func WithLogger(logger Logger) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithDeadlockCheckInterval sets how often a scheduler's round-robin
// helper (see RoundRobin) should poll [Deadlocked] for blocked
// coroutines. Zero (the default) disables automatic checking.
func WithDeadlockCheckInterval(d time.Duration) SchedulerOption {
	return &schedulerOptionFunc{func(opts *schedulerOptions) error {
		opts.deadlockInterval = d
		return nil
	}}
}

// resolveSchedulerOptions applies SchedulerOption instances to
// schedulerOptions, seeded with spec.md-compatible defaults.
func resolveSchedulerOptions(opts []SchedulerOption) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		stackSize:    defaultStackSize,
		idlePoolSize: defaultIdlePoolSize,
		logger:       NewNoOpLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
