package coro

import (
	"github.com/joeycumines/logiface"
)

// logEvent is this package's [logiface.Event] implementation: it buffers
// fields into a LogEntry.Context map so they can be replayed through a
// Logger. It is the minimal backend the teacher's test suite uses to
// exercise logiface.Logger[logiface.Event] generically.
type logEvent struct {
	logiface.UnimplementedEvent
	level   logiface.Level
	entry   LogEntry
	message string
}

func (e *logEvent) Level() logiface.Level { return e.level }

func (e *logEvent) AddField(key string, val any) {
	if e.entry.Context == nil {
		e.entry.Context = make(map[string]any, 4)
	}
	e.entry.Context[key] = val
}

func (e *logEvent) AddMessage(msg string) bool {
	e.message = msg
	return true
}

func (e *logEvent) AddError(err error) bool {
	e.entry.Err = err
	return true
}

func (e *logEvent) AddString(key, val string) bool {
	e.AddField(key, val)
	return true
}

func (e *logEvent) AddInt(key string, val int) bool {
	e.AddField(key, val)
	return true
}

func (e *logEvent) AddInt64(key string, val int64) bool {
	e.AddField(key, val)
	return true
}

func (e *logEvent) AddBool(key string, val bool) bool {
	e.AddField(key, val)
	return true
}

// logifaceLevel converts this package's LogLevel to a logiface.Level,
// using the mapping logiface itself documents for syslog-style backends.
func logifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func logLevelFromLogiface(l logiface.Level) LogLevel {
	switch {
	case l <= logiface.LevelError:
		return LevelError
	case l <= logiface.LevelWarning:
		return LevelWarn
	case l <= logiface.LevelInformational:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// logifaceLogger adapts a *logiface.Logger[logiface.Event] into this
// package's Logger interface, so a caller's existing logiface pipeline
// (zerolog/logrus/stumpy writer) receives this package's log entries
// (emitted by the Scheduler) without the caller needing to know this
// package's LogEntry shape.
type logifaceLogger struct {
	l *logiface.Logger[logiface.Event]
}

// NewLogifaceLogger adapts an existing logiface logger for use as this
// package's Logger, via [WithLogger].
func NewLogifaceLogger(l *logiface.Logger[logiface.Event]) Logger {
	return &logifaceLogger{l: l}
}

// IsEnabled implements Logger.
func (b *logifaceLogger) IsEnabled(level LogLevel) bool {
	return b.l.Level() >= logifaceLevel(level)
}

// Log implements Logger by replaying entry's fields through logiface's
// builder chain.
func (b *logifaceLogger) Log(entry LogEntry) {
	builder := b.l.Build(logifaceLevel(entry.Level))
	if builder == nil || !builder.Enabled() {
		return
	}
	builder = builder.Str("category", entry.Category)
	if entry.SchedulerID != 0 {
		builder = builder.Int64("scheduler", entry.SchedulerID)
	}
	if entry.CoroutineID != 0 {
		builder = builder.Int64("coroutine", entry.CoroutineID)
	}
	for k, v := range entry.Context {
		builder = builder.Field(k, v)
	}
	if entry.Err != nil {
		builder = builder.Err(entry.Err)
	}
	builder.Log(entry.Message)
}

// NewLogifaceEventFactory and NewLogifaceWriter let a caller build a
// *logiface.Logger[logiface.Event] backed directly by this package's
// DefaultLogger, for the reverse direction: routing a logiface-instrumented
// caller's logs through this package's pretty/JSON renderer.
func NewLogifaceEventFactory() logiface.EventFactory[logiface.Event] {
	return logiface.NewEventFactoryFunc(func(level logiface.Level) logiface.Event {
		return &logEvent{level: level}
	})
}

func NewLogifaceWriter(sink Logger) logiface.Writer[logiface.Event] {
	return logiface.NewWriterFunc(func(event logiface.Event) error {
		ev, ok := event.(*logEvent)
		if !ok {
			return nil
		}
		entry := ev.entry
		entry.Level = logLevelFromLogiface(ev.level)
		entry.Message = ev.message
		if entry.Category == "" {
			entry.Category = "logiface"
		}
		sink.Log(entry)
		return nil
	})
}
