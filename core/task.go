package core

import "sync"

// TaskStatus tracks where a task currently is in its lifecycle.
type TaskStatus int

const (
	// TaskFinished: executed and not rescheduled, or faulted.
	TaskFinished TaskStatus = 0

	// TaskInit: freshly created, not yet added to a queue.
	TaskInit TaskStatus = iota
	// TaskSuspended: held in the delay map until its deadline elapses.
	TaskSuspended
	// TaskInQueue: waiting in the worker ready queue.
	TaskInQueue
	// TaskInQueueMain: waiting in the main-thread queue for an Update call.
	TaskInQueueMain
	// TaskWorking: currently executing.
	TaskWorking
)

func (s TaskStatus) String() string {
	switch s {
	case TaskFinished:
		return "finished"
	case TaskInit:
		return "init"
	case TaskSuspended:
		return "suspended"
	case TaskInQueue:
		return "in_queue"
	case TaskInQueueMain:
		return "in_queue_main"
	case TaskWorking:
		return "working"
	}
	return "unknown"
}

// Task is the mutable unit of work. It carries the live options that decide
// dispatch, plus a scratch copy that Reschedule mutates from inside the
// executable. The queue and the submitter share the same *Task; the queue
// keeps its reference for the duration of one dispatch even if the submitter
// drops its own.
//
// Accessors are safe from any goroutine, but while the task is executing they
// may observe a momentarily inconsistent snapshot.
type Task struct {
	mu sync.Mutex

	status            TaskStatus
	options           TaskOptions
	rescheduleOptions TaskOptions
	doReschedule      bool
}

// NewTask creates a task in the Init state with the given options.
func NewTask(opts ...Option) *Task {
	t := &Task{status: TaskInit}
	t.options.SetOptions(opts...)
	return t
}

// GetStatus returns the task's current lifecycle status.
func (t *Task) GetStatus() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// GetOptions returns the live options that currently determine dispatch.
func (t *Task) GetOptions() TaskOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.options
}

// GetRescheduleOptions returns the scratch options a pending Reschedule would
// re-enter the queue with.
func (t *Task) GetRescheduleOptions() TaskOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rescheduleOptions
}

// WillReschedule reports whether the task has requested another run.
func (t *Task) WillReschedule() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doReschedule
}

// Reschedule requests another run of the task with the given option changes
// merged over the current options. It must only be called from inside the
// task's own executable; the task lock is guaranteed not to be held there.
// With no arguments the task re-runs with unchanged options.
func (t *Task) Reschedule(opts ...Option) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rescheduleOptions.SetOptions(opts...)
	t.doReschedule = true
}

// resetReschedule clears the reschedule flag and reseeds the scratch options
// from the live ones, so a parameterless Reschedule re-runs the task as-is.
// The queue calls this right before handing control to the executable.
// Caller holds t.mu.
func (t *Task) resetReschedule() {
	t.doReschedule = false
	t.rescheduleOptions = t.options
}

// applyReschedule promotes the scratch options to live. The queue calls this
// after the executable returns, only when doReschedule is set. Caller holds
// t.mu.
func (t *Task) applyReschedule() {
	t.options = t.rescheduleOptions
}

// execute runs the task's executable. The task lock is explicitly surrendered
// before the call and re-taken after, which is what allows the executable to
// call Reschedule without deadlocking. A panic in the executable is routed to
// the queue's panic handler and the task finishes without rescheduling.
func (t *Task) execute(queue *TaskQueue, self *Task) {
	t.mu.Lock()
	if t.options.Executable == nil {
		t.mu.Unlock()
		return
	}
	t.status = TaskWorking
	t.resetReschedule()
	exec := t.options.Executable
	t.mu.Unlock()

	panicked := invoke(queue, self, exec)

	t.mu.Lock()
	if panicked {
		t.doReschedule = false
	}
	if !t.doReschedule {
		t.status = TaskFinished
	}
	t.mu.Unlock()
}

// invoke calls exec, containing any panic so a faulting executable cannot
// poison the queue.
func invoke(queue *TaskQueue, task *Task, exec Executable) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			queue.handlePanic(r)
		}
	}()
	exec(queue, task)
	return false
}
