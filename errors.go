package desim

import "errors"

// Programmer errors. These indicate a misuse of the kernel's API and are
// never recovered from automatically; the caller is expected to fix the
// calling code.
var (
	ErrNameAlreadyRegistered = errors.New("desim: component name already registered")
	ErrUnknownComponent      = errors.New("desim: unknown component id")
	ErrUnknownComponentName  = errors.New("desim: unknown component name")
	ErrHandlerAlreadySet     = errors.New("desim: handler already attached for component")
	ErrNegativeDelay         = errors.New("desim: delay must be non-negative")
	ErrStepBackwards         = errors.New("desim: cannot step to a time before the current clock")
	ErrNegativeDuration      = errors.New("desim: duration must be non-negative")
	ErrEmitOrderedViolation  = errors.New("desim: emit-ordered called with a non-monotonic scheduled time")
)

// ErrUnhandledVariant is returned by Dispatcher.HandleEvent when no
// registered handler matches the payload's tag (its Tag() result, or its
// Go type name). Unlike the errors above this
// is not necessarily a programmer error — it signals an incomplete
// dispatch table, and it is up to the caller whether that is fatal.
var ErrUnhandledVariant = errors.New("desim: no handler registered for payload type")
