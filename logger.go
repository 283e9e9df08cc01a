package desim

import (
	"fmt"
	"sync"
)

// Level is a log severity, ordered from most to least verbose
//.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String renders a Level the way log lines show it.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger is the interface the kernel uses for all structured logging.
// The severity is the method called and the message body comes first;
// key-value pairs follow the message, the same shape slog, logrus, and
// zap all accept, so swapping in any of them requires only a thin
// adapter — see internal/rzlog for the zerolog-backed implementation.
// Records sent through a Context's Logger carry the component's name as a
// leading "component" pair; the simulation time is not added to them.
// A Kernel built without WithLogger discards records via NopLogger.
//
// Implementations must be safe for concurrent use; in practice the kernel
// itself is single-threaded, but a Logger may be shared
// across multiple Kernel instances within one test binary.
type Logger interface {
	Trace(msg string, kv ...any)
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// NopLogger discards every record. Useful as a default in tests that don't
// care about log output.
type NopLogger struct{}

func (NopLogger) Trace(string, ...any) {}
func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// PrintLogger writes one line per record via fmt.Printf; it exists mainly
// for examples and the cmd/desimctl harness, where pulling in a structured
// sink is overkill.
type PrintLogger struct{}

func (PrintLogger) log(level, msg string, kv ...any) {
	fmt.Printf("[%s] %s %v\n", level, msg, kv)
}

func (p PrintLogger) Trace(msg string, kv ...any) { p.log("trace", msg, kv...) }
func (p PrintLogger) Debug(msg string, kv ...any) { p.log("debug", msg, kv...) }
func (p PrintLogger) Info(msg string, kv ...any)  { p.log("info", msg, kv...) }
func (p PrintLogger) Warn(msg string, kv ...any)  { p.log("warn", msg, kv...) }
func (p PrintLogger) Error(msg string, kv ...any) { p.log("error", msg, kv...) }

// LevelFilter wraps a Logger with a global minimum severity and optional
// per-component overrides, both changeable while a simulation is running
//. It is deliberately not baked into any concrete Logger
// implementation, so any backend can be filtered the same way.
type LevelFilter struct {
	mu        sync.RWMutex
	next      Logger
	global    Level
	perSource map[string]Level
}

// NewLevelFilter wraps next with a global minimum severity of global.
func NewLevelFilter(next Logger, global Level) *LevelFilter {
	return &LevelFilter{next: next, global: global, perSource: make(map[string]Level)}
}

// SetGlobalLevel updates the global minimum severity.
func (f *LevelFilter) SetGlobalLevel(level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = level
}

// SetComponentLevel overrides the minimum severity for one component name.
func (f *LevelFilter) SetComponentLevel(component string, level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perSource[component] = level
}

// ClearComponentLevel removes a component-specific override, reverting it
// to the global minimum severity.
func (f *LevelFilter) ClearComponentLevel(component string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.perSource, component)
}

func (f *LevelFilter) threshold(component string) Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if lvl, ok := f.perSource[component]; ok {
		return lvl
	}
	return f.global
}

// Allow reports whether a record at level, from component, should reach
// the wrapped Logger.
func (f *LevelFilter) Allow(component string, level Level) bool {
	return level >= f.threshold(component)
}

// ForComponent returns a Logger bound to one component name: every record
// is checked against that component's effective threshold before being
// forwarded to the wrapped Logger.
func (f *LevelFilter) ForComponent(component string) Logger {
	return &sourcedLogger{filter: f, component: component}
}

type sourcedLogger struct {
	filter    *LevelFilter
	component string
}

func (s *sourcedLogger) Trace(msg string, kv ...any) {
	if s.filter.Allow(s.component, LevelTrace) {
		s.filter.next.Trace(msg, append([]any{"component", s.component}, kv...)...)
	}
}

func (s *sourcedLogger) Debug(msg string, kv ...any) {
	if s.filter.Allow(s.component, LevelDebug) {
		s.filter.next.Debug(msg, append([]any{"component", s.component}, kv...)...)
	}
}

func (s *sourcedLogger) Info(msg string, kv ...any) {
	if s.filter.Allow(s.component, LevelInfo) {
		s.filter.next.Info(msg, append([]any{"component", s.component}, kv...)...)
	}
}

func (s *sourcedLogger) Warn(msg string, kv ...any) {
	if s.filter.Allow(s.component, LevelWarn) {
		s.filter.next.Warn(msg, append([]any{"component", s.component}, kv...)...)
	}
}

func (s *sourcedLogger) Error(msg string, kv ...any) {
	if s.filter.Allow(s.component, LevelError) {
		s.filter.next.Error(msg, append([]any{"component", s.component}, kv...)...)
	}
}
