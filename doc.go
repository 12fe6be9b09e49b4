// Package coro provides a cooperative, stackful coroutine runtime:
// coroutine creation and lifecycle, a coroutine-aware mutex ([Comutex])
// and condition variable ([Cocondition]), per-coroutine message queues
// with request-reply semantics, and cooperative deadlock detection.
//
// # Architecture
//
// Each coroutine is a real goroutine, rendezvous-synchronized with its
// resumer over an unbuffered channel, so that exactly one goroutine per
// [Scheduler] is ever actually runnable at a time: control only moves
// when [Scheduler.Resume] hands a value to a suspended coroutine, or the
// running coroutine calls [Coroutine.Yield] (directly, or indirectly via
// [Comutex.Lock], [Cocondition.Wait], or a [Queue] wait). This gives the
// "stackful" property a pure async/await model cannot: a blocking call at
// arbitrary depth in user code suspends its whole call tree, because that
// call tree is a real goroutine stack.
//
// A goroutine calls [Configure] to adopt its current execution as the
// root coroutine of a new [Scheduler]. Subsequent [Scheduler.Create]
// calls spawn children scheduled cooperatively by
// [Scheduler.Resume]/[Coroutine.Yield].
// Mutex and condition operations that would block instead yield a
// sentinel [Result] back to the resumer; the resumer is expected to
// re-resume the coroutine later, typically via a round-robin loop over
// coroutines it owns (see [Scheduler.RoundRobin]).
//
// # Multi-threading
//
// [Scheduler] state is not global: each goroutine that wants its own
// coroutine group constructs (or [Configure]s) its own [Scheduler].
// [ThreadGroup] (thread.go) is the optional multi-threaded shim of
// spec.md §4.8: it tracks a [Scheduler] per thread handle and routes
// cross-thread messages via [SendToThread] /
// [ThreadGroup.BroadcastToThreads]. Coroutines never migrate between
// schedulers.
//
// # Sentinel results
//
// [Scheduler.Resume] returns a [Result], a tagged (status, value) pair
// rather than an untyped pointer sentinel. [Result.Sentinel] reports
// which, if any, of the legacy out-of-band tags
// ([ResumeNotResumable], [ResumeTimedWait], [ResumeWait], [ResumeCorrupt])
// applies, for callers that prefer the spec's sentinel-comparison style.
//
// # Error types
//
// Operations return a [Status] alongside any value, and/or a sentinel
// error usable with [errors.Is]: [ErrNotResumable], [ErrCorrupt],
// [ErrNilTarget], [ErrNotOwner], [ErrWrongMutexMode]. See errors.go.
//
// # Logging
//
// Scheduler events (resume tracing and RoundRobin's deadlock warnings)
// are reported through the [Logger] interface (logging.go); mutex,
// condition, and queue operations do not log. [NewDefaultLogger] gives a minimal
// built-in sink; [NewLogifaceLogger] (logifacebridge.go) adapts a
// [github.com/joeycumines/logiface] pipeline instead.
package coro
