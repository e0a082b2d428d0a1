package core

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestTaskQueue_WorkerAdmission verifies basic worker dispatch
// Main test items:
// 1. A default task executes on a worker without any Update call
// 2. added/completed/total reflect one finished task
func TestTaskQueue_WorkerAdmission(t *testing.T) {
	q := newRunningQueue(t, 3, 2, 1)

	var ran atomic.Bool
	ok := q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		ran.Store(true)
	})))
	if !ok {
		t.Fatal("AddTask returned false on an initialized queue")
	}

	if !waitFor(50*time.Millisecond, ran.Load) {
		t.Fatal("task did not run within 50ms")
	}
	if !waitFor(50*time.Millisecond, func() bool {
		s := q.GetPerformanceStats(false)
		return s.Completed == 1 && s.Total == 0 && s.Added == 1
	}) {
		t.Errorf("stats = %+v, want added 1, completed 1, total 0", q.GetPerformanceStats(false))
	}
}

// TestTaskQueue_MainThreadGate verifies main-thread tasks wait for Update
// Main test items:
// 1. A main-thread task does not run until Update is called
// 2. One Update executes it on the calling goroutine
func TestTaskQueue_MainThreadGate(t *testing.T) {
	q := newRunningQueue(t, 3, 2, 1)

	var ran atomic.Bool
	q.AddTask(NewTask(MainThread, Executable(func(queue *TaskQueue, task *Task) {
		ran.Store(true)
	})))

	time.Sleep(100 * time.Millisecond)
	if ran.Load() {
		t.Fatal("main-thread task ran without Update")
	}
	if s := q.GetPerformanceStats(false); s.Total != 1 {
		t.Errorf("total = %d, want 1 while gated", s.Total)
	}

	q.Update()

	if !waitFor(50*time.Millisecond, ran.Load) {
		t.Fatal("task did not run after Update")
	}
	if s := q.GetPerformanceStats(false); s.Completed != 1 {
		t.Errorf("completed = %d, want 1", s.Completed)
	}
}

// TestTaskQueue_BlockingIgnored verifies the blocking/non-blocking worker split
// Main test items:
// 1. Non-blocking workers bypass queued blocking tasks
// 2. Blocking tasks complete on the blocking-capable workers
func TestTaskQueue_BlockingIgnored(t *testing.T) {
	q := newRunningQueue(t, 3, 2, 1)

	var short atomic.Bool
	for i := 0; i < 4; i++ {
		q.AddTask(NewTask(TaskBlocking(true), Executable(func(queue *TaskQueue, task *Task) {
			time.Sleep(100 * time.Millisecond)
		})))
	}
	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		short.Store(true)
	})))

	time.Sleep(60 * time.Millisecond)
	if !short.Load() {
		t.Fatal("short task did not overtake the blocking ones")
	}
	s := q.GetPerformanceStats(false)
	if s.Completed != 1 || s.Total != 4 {
		t.Errorf("at 60ms: completed = %d, total = %d, want 1 and 4", s.Completed, s.Total)
	}

	time.Sleep(70 * time.Millisecond)
	if s := q.GetPerformanceStats(false); s.Completed != 4 {
		t.Errorf("at 130ms: completed = %d, want 4", s.Completed)
	}

	time.Sleep(100 * time.Millisecond)
	s = q.GetPerformanceStats(false)
	if s.Completed != 5 || s.Total != 0 {
		t.Errorf("at 230ms: completed = %d, total = %d, want 5 and 0", s.Completed, s.Total)
	}
}

// TestTaskQueue_Delay verifies delay-map suspension and promotion
// Main test items:
// 1. A delayed task is counted suspended/waiting and does not run early
// 2. After its deadline it runs and the counters settle
func TestTaskQueue_Delay(t *testing.T) {
	q := newRunningQueue(t, 3, 2, 1)

	var ran atomic.Bool
	q.AddTask(NewTask(TaskDelay(100*time.Millisecond), Executable(func(queue *TaskQueue, task *Task) {
		ran.Store(true)
	})))

	s := q.GetPerformanceStats(false)
	if s.Suspended != 1 || s.Waiting != 1 || s.Total != 1 {
		t.Errorf("after submit: %+v, want suspended 1, waiting 1, total 1", s)
	}
	if ran.Load() {
		t.Fatal("delayed task ran immediately")
	}

	time.Sleep(60 * time.Millisecond)
	q.Update()
	if ran.Load() {
		t.Fatal("delayed task ran before its deadline")
	}

	time.Sleep(70 * time.Millisecond)
	q.Update()
	if !waitFor(50*time.Millisecond, ran.Load) {
		t.Fatal("delayed task did not run after its deadline")
	}
	if !waitFor(50*time.Millisecond, func() bool {
		s := q.GetPerformanceStats(false)
		return s.Completed == 1 && s.Resumed == 1 && s.Waiting == 0 && s.Total == 0
	}) {
		t.Errorf("after deadline: %+v, want completed 1, resumed 1, waiting 0, total 0",
			q.GetPerformanceStats(false))
	}
}

// TestTaskQueue_RescheduleWorkerToMain verifies retargeting across runs
// Main test items:
// 1. The first run happens on a worker
// 2. The rescheduled run waits in the main queue until Update
func TestTaskQueue_RescheduleWorkerToMain(t *testing.T) {
	q := newRunningQueue(t, 3, 2, 1)

	var firstRun, secondRun atomic.Bool
	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		if firstRun.CompareAndSwap(false, true) {
			task.Reschedule(MainThread)
			return
		}
		secondRun.Store(true)
	})))

	time.Sleep(30 * time.Millisecond)
	if !firstRun.Load() {
		t.Fatal("first run did not happen on a worker")
	}
	if secondRun.Load() {
		t.Fatal("second run happened without Update")
	}

	q.Update()
	if !secondRun.Load() {
		t.Fatal("second run did not happen in Update")
	}
}

// TestTaskQueue_PriorityCeiling verifies the admission ceiling
// Main test items:
// 1. A queued priority-0 task is passed over while a priority-20 task runs
// 2. The ceiling is released when the prioritized task finishes
func TestTaskQueue_PriorityCeiling(t *testing.T) {
	q := newRunningQueue(t, 3, 2, 1)

	var low atomic.Bool
	q.AddTask(NewTask(TaskPriority(20), Executable(func(queue *TaskQueue, task *Task) {
		time.Sleep(100 * time.Millisecond)
	})))
	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		low.Store(true)
	})))

	time.Sleep(60 * time.Millisecond)
	if low.Load() {
		t.Fatal("priority-0 task ran under an elevated ceiling")
	}

	if !waitFor(120*time.Millisecond, low.Load) {
		t.Fatal("priority-0 task did not run after the ceiling was released")
	}
}

// TestTaskQueue_AddTaskFailures verifies sentinel returns
// Main test items:
// 1. AddTask fails on a nil handle
// 2. AddTask fails on an uninitialized queue
// 3. AddTask fails after Cleanup
func TestTaskQueue_AddTaskFailures(t *testing.T) {
	q := NewTaskQueue()

	if q.AddTask(NewTask()) {
		t.Error("AddTask succeeded on an uninitialized queue")
	}

	q.Initialize(DefaultConfiguration())
	if q.AddTask(nil) {
		t.Error("AddTask succeeded with a nil handle")
	}
	if s := q.GetPerformanceStats(false); s.Added != 0 {
		t.Errorf("failed AddTask mutated counters: %+v", s)
	}

	q.Cleanup()
	if q.AddTask(NewTask()) {
		t.Error("AddTask succeeded after Cleanup")
	}
}

// TestTaskQueue_InitializeGuards verifies Initialize edge cases
// Main test items:
// 1. A configuration without blocking workers is rejected
// 2. A second Initialize is ignored
// 3. Initialize after Cleanup is ignored
func TestTaskQueue_InitializeGuards(t *testing.T) {
	q := NewTaskQueue()

	q.Initialize(Configuration{BlockingThreads: 0, NonBlockingThreads: 2, SchedulingThreads: 1})
	if q.IsInitialized() {
		t.Fatal("queue initialized without blocking workers")
	}

	q.Initialize(Configuration{BlockingThreads: 2, NonBlockingThreads: 1, SchedulingThreads: 1})
	if !q.IsInitialized() {
		t.Fatal("queue failed to initialize")
	}
	if q.NumWorkerThreads() != 3 || q.NumBlockingThreads() != 2 ||
		q.NumNonBlockingThreads() != 1 || q.NumSchedulingThreads() != 1 {
		t.Errorf("thread counts = %d/%d/%d/%d, want 3/2/1/1",
			q.NumWorkerThreads(), q.NumBlockingThreads(),
			q.NumNonBlockingThreads(), q.NumSchedulingThreads())
	}

	// Second Initialize with a different split is ignored.
	q.Initialize(Configuration{BlockingThreads: 6, NonBlockingThreads: 6, SchedulingThreads: 6})
	if q.NumWorkerThreads() != 3 {
		t.Errorf("second Initialize changed the thread count to %d", q.NumWorkerThreads())
	}

	q.Cleanup()
	q.Initialize(DefaultConfiguration())
	if q.IsInitialized() {
		t.Error("Initialize succeeded on a shut-down queue")
	}
}

// TestTaskQueue_CleanupIdempotent verifies shutdown behavior
// Main test items:
// 1. Cleanup on an uninitialized queue is a no-op
// 2. Double Cleanup equals single Cleanup
// 3. Counters are reset by Cleanup
func TestTaskQueue_CleanupIdempotent(t *testing.T) {
	unstarted := NewTaskQueue()
	unstarted.Cleanup()
	if unstarted.IsShutDown() {
		t.Error("Cleanup of an unstarted queue marked it shut down")
	}

	q := NewTaskQueue()
	q.Initialize(Configuration{BlockingThreads: 2, NonBlockingThreads: 1, SchedulingThreads: 1})

	done := make(chan struct{})
	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		close(done)
	})))
	<-done

	q.Cleanup()
	q.Cleanup()

	if !q.IsShutDown() {
		t.Error("queue not marked shut down")
	}
	if q.IsInitialized() {
		t.Error("queue still marked initialized")
	}
	if q.NumWorkerThreads() != 0 {
		t.Errorf("worker count after Cleanup = %d, want 0", q.NumWorkerThreads())
	}
	s := q.GetPerformanceStats(false)
	if s != (PerformanceStats{}) {
		t.Errorf("counters not reset by Cleanup: %+v", s)
	}
}

// TestTaskQueue_StatsReset verifies GetPerformanceStats reset semantics
// Main test items:
// 1. reset zeroes the accumulating counters only
// 2. waiting and total survive a reset
func TestTaskQueue_StatsReset(t *testing.T) {
	q := newRunningQueue(t, 2, 1, 1)

	done := make(chan struct{}, 1)
	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		done <- struct{}{}
	})))
	<-done

	// Park one task in the delay map so waiting/total are nonzero.
	q.AddTask(NewTask(TaskDelay(time.Hour), Executable(func(queue *TaskQueue, task *Task) {})))

	if !waitFor(100*time.Millisecond, func() bool {
		return q.GetPerformanceStats(false).Completed == 1
	}) {
		t.Fatal("first task did not complete")
	}

	s := q.GetPerformanceStats(true)
	if s.Added != 2 || s.Completed != 1 || s.Suspended != 1 {
		t.Errorf("pre-reset snapshot = %+v, want added 2, completed 1, suspended 1", s)
	}

	s = q.GetPerformanceStats(false)
	if s.Added != 0 || s.Completed != 0 || s.Suspended != 0 || s.Resumed != 0 {
		t.Errorf("accumulating counters not reset: %+v", s)
	}
	if s.Waiting != 1 || s.Total != 1 {
		t.Errorf("current counters must survive reset: %+v, want waiting 1, total 1", s)
	}
}

// TestTaskQueue_TotalInvariant verifies the ownership accounting
// Main test items:
// 1. In a steady state, total equals queued + suspended + executing
func TestTaskQueue_TotalInvariant(t *testing.T) {
	q := newRunningQueue(t, 2, 1, 1)

	block := make(chan struct{})
	release := func() { close(block) }

	// Two executing (workers parked), one suspended, one gated on main.
	for i := 0; i < 2; i++ {
		q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
			<-block
		})))
	}
	q.AddTask(NewTask(TaskDelay(time.Hour), Executable(func(queue *TaskQueue, task *Task) {})))
	q.AddTask(NewTask(MainThread, Executable(func(queue *TaskQueue, task *Task) {})))

	if !waitFor(100*time.Millisecond, func() bool {
		s := q.GetPerformanceStats(false)
		return s.Total == 4 && s.Waiting == 1
	}) {
		t.Errorf("steady state stats = %+v, want total 4, waiting 1", q.GetPerformanceStats(false))
	}

	release()
	q.Update()

	if !waitFor(100*time.Millisecond, func() bool {
		s := q.GetPerformanceStats(false)
		return s.Completed == 3 && s.Total == 1
	}) {
		t.Errorf("after drain: %+v, want completed 3, total 1 (delayed task)", q.GetPerformanceStats(false))
	}
}

// TestTaskQueue_MainQueueKeepsDeferred verifies low-priority main tasks survive
// Main test items:
// 1. A main task below the ceiling stays queued across an Update
// 2. It runs on a later Update once the ceiling is gone
func TestTaskQueue_MainQueueKeepsDeferred(t *testing.T) {
	q := newRunningQueue(t, 2, 1, 1)

	hold := make(chan struct{})
	var low atomic.Bool

	q.AddTask(NewTask(TaskPriority(10), Executable(func(queue *TaskQueue, task *Task) {
		<-hold
	})))
	q.AddTask(NewTask(MainThread, Executable(func(queue *TaskQueue, task *Task) {
		low.Store(true)
	})))

	// Ceiling is 10; the main task is deferred, not dropped.
	q.Update()
	if low.Load() {
		t.Fatal("low-priority main task ran under an elevated ceiling")
	}
	if s := q.GetPerformanceStats(false); s.Total != 2 {
		t.Errorf("total = %d, want 2 (deferred task still owned)", s.Total)
	}

	close(hold)
	if !waitFor(100*time.Millisecond, func() bool {
		return q.GetPerformanceStats(false).Completed == 1
	}) {
		t.Fatal("prioritized task did not finish")
	}

	q.Update()
	if !low.Load() {
		t.Fatal("deferred main task did not run after the ceiling was released")
	}
}

// TestTaskQueue_PanicContainment verifies a faulting task cannot poison the queue
// Main test items:
// 1. The panic reaches the handler and the queue keeps dispatching
// 2. The faulted task is counted completed
func TestTaskQueue_PanicContainment(t *testing.T) {
	q := newRunningQueue(t, 2, 1, 1)
	handler := &recordingPanicHandler{}
	q.SetPanicHandler(handler)

	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		panic("task fault")
	})))

	if !waitFor(100*time.Millisecond, func() bool { return handler.count() == 1 }) {
		t.Fatal("panic did not reach the handler")
	}

	var ran atomic.Bool
	q.AddTask(NewTask(Executable(func(queue *TaskQueue, task *Task) {
		ran.Store(true)
	})))
	if !waitFor(100*time.Millisecond, ran.Load) {
		t.Fatal("queue stopped dispatching after a task fault")
	}

	if !waitFor(100*time.Millisecond, func() bool {
		s := q.GetPerformanceStats(false)
		return s.Completed == 2 && s.Total == 0
	}) {
		t.Errorf("stats after fault = %+v, want completed 2, total 0", q.GetPerformanceStats(false))
	}
}
