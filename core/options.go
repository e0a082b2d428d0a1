package core

import (
	"reflect"
	"time"
)

// TaskPriority orders tasks for admission. Higher values are more important;
// the zero value is the default.
type TaskPriority uint32

// TaskBlocking marks a task as potentially long-running. Workers created as
// blocking-ignorers refuse to pick such tasks up.
type TaskBlocking bool

// TaskThreadTarget selects which side of the queue a task lands on.
type TaskThreadTarget int

const (
	// MainThread routes the task to the main-thread queue, drained by Update.
	MainThread TaskThreadTarget = iota
	// WorkerThread routes the task to the worker ready queue.
	WorkerThread
)

// TaskDelay suspends the task for the given duration before it becomes
// runnable.
type TaskDelay time.Duration

// Executable is the unit of work. It receives the queue it runs on and a
// strong handle to its own task, so the task can Reschedule itself and is
// kept alive even if the submitter dropped its reference.
type Executable func(queue *TaskQueue, task *Task)

// =============================================================================
// Option: tagged per-knob setters merged into TaskOptions
// =============================================================================

// Option is one scheduling knob. Options are applied in argument order, so
// for conflicting settings the last one wins.
type Option interface {
	applyTo(*TaskOptions)
}

func (p TaskPriority) applyTo(o *TaskOptions)     { o.Priority = p }
func (b TaskBlocking) applyTo(o *TaskOptions)     { o.IsBlocking = bool(b) }
func (t TaskThreadTarget) applyTo(o *TaskOptions) { o.IsMainThread = t == MainThread }
func (d TaskDelay) applyTo(o *TaskOptions)        { o.Delay = time.Duration(d) }
func (e Executable) applyTo(o *TaskOptions)       { o.Executable = e }

// A whole TaskOptions value overwrites every field at once.
func (src TaskOptions) applyTo(o *TaskOptions) { *o = src }

// =============================================================================
// TaskOptions
// =============================================================================

// TaskOptions is the bundle of knobs that determines where and when a task is
// dispatched. The zero value is the default set: priority 0, non-blocking,
// worker-targeted, no delay, no executable.
type TaskOptions struct {
	Priority     TaskPriority
	IsBlocking   bool
	IsMainThread bool
	Delay        time.Duration
	Executable   Executable
}

// NewTaskOptions builds a TaskOptions from the given options.
func NewTaskOptions(opts ...Option) TaskOptions {
	var o TaskOptions
	o.SetOptions(opts...)
	return o
}

// SetOptions merges the given options into o, in order. Fields not mentioned
// are left untouched; calling with no arguments is a no-op.
func (o *TaskOptions) SetOptions(opts ...Option) {
	for _, opt := range opts {
		opt.applyTo(o)
	}
}

// Equals reports whether two option sets are the same. Executables cannot be
// compared for semantic identity; they match when both are nil, or when both
// are non-nil and share the same runtime type. Do not use Equals to decide
// whether two tasks run the same code.
func (o TaskOptions) Equals(other TaskOptions) bool {
	if o.Priority != other.Priority ||
		o.IsBlocking != other.IsBlocking ||
		o.IsMainThread != other.IsMainThread ||
		o.Delay != other.Delay {
		return false
	}
	if (o.Executable == nil) != (other.Executable == nil) {
		return false
	}
	if o.Executable == nil {
		return true
	}
	return reflect.TypeOf(o.Executable) == reflect.TypeOf(other.Executable)
}
