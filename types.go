package taskslib

import "github.com/taskslib/go-tasks-queue/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskslib package for most use cases.

// Task is the mutable unit of work.
type Task = core.Task

// TaskOptions bundles the scheduling knobs of a task.
type TaskOptions = core.TaskOptions

// Option is one scheduling knob, applied in argument order.
type Option = core.Option

// TaskPriority orders tasks for admission; higher wins.
type TaskPriority = core.TaskPriority

// TaskBlocking flags a task as potentially long-running.
type TaskBlocking = core.TaskBlocking

// TaskThreadTarget selects the worker pool or the main-thread queue.
type TaskThreadTarget = core.TaskThreadTarget

// TaskDelay suspends a task for a duration before it becomes runnable.
type TaskDelay = core.TaskDelay

// Executable is the task body.
type Executable = core.Executable

// TaskStatus tracks a task through its lifecycle.
type TaskStatus = core.TaskStatus

// TaskQueue dispatches tasks across workers, the main thread and the delay
// scheduler.
type TaskQueue = core.TaskQueue

// Configuration sets a queue's thread split.
type Configuration = core.Configuration

// PerformanceStats is a snapshot of a queue's counters.
type PerformanceStats = core.PerformanceStats

// TaskQueueContainer is a name-indexed set of queues.
type TaskQueueContainer = core.TaskQueueContainer

// Logger is the structured logging seam used by queues.
type Logger = core.Logger

// Field is one key-value pair attached to a log message.
type Field = core.Field

// PanicHandler receives recovered panics from task executables.
type PanicHandler = core.PanicHandler

// Thread targets.
const (
	MainThread   = core.MainThread
	WorkerThread = core.WorkerThread
)

// Task statuses.
const (
	TaskFinished    = core.TaskFinished
	TaskInit        = core.TaskInit
	TaskSuspended   = core.TaskSuspended
	TaskInQueue     = core.TaskInQueue
	TaskInQueueMain = core.TaskInQueueMain
	TaskWorking     = core.TaskWorking
)

// Constructors and helpers, re-exported.
var (
	NewTask               = core.NewTask
	NewTaskOptions        = core.NewTaskOptions
	NewTaskQueue          = core.NewTaskQueue
	NewNamedTaskQueue     = core.NewNamedTaskQueue
	NewTaskQueueContainer = core.NewTaskQueueContainer
	DefaultConfiguration  = core.DefaultConfiguration
	F                     = core.F
)
