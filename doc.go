// Package taskslib provides an in-process task queue for mixed CPU- and
// I/O-bound work inside a single application.
//
// Callers submit tasks - each a callable plus a bundle of scheduling options -
// and the library dispatches them across background worker goroutines, a
// main-thread queue drained by the caller, and a delay scheduler that
// resurrects suspended tasks at their due time. A task may, from inside its
// own body, reschedule itself with a new set of options (different thread
// target, priority, blocking flag, delay, or a different callable entirely).
//
// # Quick Start
//
//	queue := taskslib.NewTaskQueue()
//	queue.Initialize(taskslib.DefaultConfiguration())
//	defer queue.Cleanup()
//
//	queue.AddTask(taskslib.NewTask(taskslib.Executable(
//		func(q *taskslib.TaskQueue, t *taskslib.Task) {
//			// runs on a worker goroutine
//		})))
//
// Call Update from your main loop to serve main-thread tasks and keep the
// delay scheduler honest:
//
//	for running {
//		queue.Update()
//		// ... rest of the frame
//	}
//
// # Key Concepts
//
// TaskOptions: the five knobs that determine dispatch - priority, blocking
// flag, thread target, delay and the executable. Options are merged in
// argument order; the last one wins.
//
// Blocking flag: a hint that the task may run long. Workers configured as
// non-blocking refuse such tasks, so short work keeps its latency even when
// every blocking-capable worker is busy.
//
// Priority ceiling: admitting a higher-priority task raises a queue-wide
// floor; lower-priority tasks are passed over until the prioritized work
// finishes.
//
// Reschedule: from inside its executable a task can request another run with
// changed options, giving the flavor of a cooperative, option-driven
// coroutine system without language-level async primitives.
//
// TaskQueueContainer: a name-indexed set of independently configured queues,
// buildable from a YAML declaration via LoadContainer.
//
// For zerolog-backed logging see the logx subpackage; for Prometheus metrics
// see observability/prometheus.
package taskslib
