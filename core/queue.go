package core

import (
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// Configuration sets how many goroutines a queue spawns on Initialize.
// BlockingThreads workers accept every task; NonBlockingThreads workers skip
// tasks flagged as blocking, keeping latency for short work; SchedulingThreads
// watch the delay map.
type Configuration struct {
	BlockingThreads    uint
	NonBlockingThreads uint
	SchedulingThreads  uint
}

// DefaultConfiguration returns the default thread split.
func DefaultConfiguration() Configuration {
	return Configuration{BlockingThreads: 6, NonBlockingThreads: 2, SchedulingThreads: 1}
}

// PerformanceStats is a snapshot of the queue's counters. Added, Completed,
// Suspended and Resumed accumulate and can be reset; Waiting and Total track
// current state and never reset.
type PerformanceStats struct {
	Added     int32
	Completed int32
	Suspended int32
	Resumed   int32
	Waiting   int32
	Total     int32
}

type performanceCounters struct {
	added     atomic.Int32
	completed atomic.Int32
	suspended atomic.Int32
	resumed   atomic.Int32
	waiting   atomic.Int32
	total     atomic.Int32
}

// earliestDeadline sentinels. The past value forces the delay watcher to
// re-read the map; the future value means the map is empty.
const (
	sentinelPast   = int64(math.MinInt64)
	sentinelFuture = int64(math.MaxInt64)
)

// TaskQueue dispatches tasks across worker goroutines, a main-thread queue
// drained by Update, and a deadline-ordered delay map served by scheduling
// goroutines.
//
// Lock order, for any code path that takes more than one: task lock, initMu,
// delayMu, readyMu, mainMu.
type TaskQueue struct {
	name string

	initialized atomic.Bool
	shutDown    atomic.Bool

	// runningPriority is the admission ceiling: while it is elevated, tasks
	// with strictly lower priority are passed over. It rises when a
	// higher-priority task is admitted and drops back to zero when any task
	// with priority > 0 finishes.
	runningPriority atomic.Uint32

	initMu         sync.Mutex
	stopCh         chan struct{}
	wg             sync.WaitGroup
	numBlocking    atomic.Uint32
	numNonBlocking atomic.Uint32
	numScheduling  atomic.Uint32

	readyMu   sync.Mutex
	readyCond *sync.Cond
	ready     []*Task

	mainMu sync.Mutex
	main   []*Task

	delayMu          sync.Mutex
	delayed          *treemap.Map // time.Time -> []*Task, ordered by deadline
	delayWake        chan struct{}
	earliestDeadline atomic.Int64 // unix nanos, or a sentinel

	stats performanceCounters

	logger       Logger
	panicHandler PanicHandler
}

// NewTaskQueue creates an uninitialized queue. Call Initialize before adding
// tasks.
func NewTaskQueue() *TaskQueue {
	return NewNamedTaskQueue("")
}

// NewNamedTaskQueue creates an uninitialized queue carrying a name used in
// log fields and metric labels.
func NewNamedTaskQueue(name string) *TaskQueue {
	q := &TaskQueue{
		name:         name,
		delayed:      treemap.NewWith(utils.TimeComparator),
		delayWake:    make(chan struct{}, 1),
		logger:       NewNoOpLogger(),
		panicHandler: &DefaultPanicHandler{},
	}
	q.readyCond = sync.NewCond(&q.readyMu)
	q.earliestDeadline.Store(sentinelFuture)
	return q
}

// SetLogger replaces the queue's logger. Call before Initialize.
func (q *TaskQueue) SetLogger(l Logger) {
	if l != nil {
		q.logger = l
	}
}

// SetPanicHandler replaces the queue's panic handler. Call before Initialize.
func (q *TaskQueue) SetPanicHandler(h PanicHandler) {
	if h != nil {
		q.panicHandler = h
	}
}

// Name returns the queue's name, empty for unnamed queues.
func (q *TaskQueue) Name() string {
	return q.name
}

// Initialize spawns the configured worker and scheduling goroutines. It is a
// silent no-op when the queue is already initialized, was already shut down,
// or when the configuration carries no blocking-capable workers (tasks
// flagged as blocking would never run).
func (q *TaskQueue) Initialize(config Configuration) {
	q.initMu.Lock()
	defer q.initMu.Unlock()

	if q.initialized.Load() || q.shutDown.Load() || config.BlockingThreads == 0 {
		return
	}

	q.stopCh = make(chan struct{})
	q.numBlocking.Store(uint32(config.BlockingThreads))
	q.numNonBlocking.Store(uint32(config.NonBlockingThreads))
	q.numScheduling.Store(uint32(config.SchedulingThreads))

	id := uint(0)
	for i := uint(0); i < config.NonBlockingThreads; i, id = i+1, id+1 {
		q.wg.Add(1)
		go q.workerLoop(id, true)
	}
	for i := uint(0); i < config.BlockingThreads; i, id = i+1, id+1 {
		q.wg.Add(1)
		go q.workerLoop(id, false)
	}
	for i := uint(0); i < config.SchedulingThreads; i, id = i+1, id+1 {
		q.wg.Add(1)
		go q.delayLoop(id, q.stopCh)
	}

	q.initialized.Store(true)
	q.logger.Info("task queue initialized",
		F("queue", q.name),
		F("blocking", config.BlockingThreads),
		F("nonBlocking", config.NonBlockingThreads),
		F("scheduling", config.SchedulingThreads))
}

// Cleanup stops every goroutine the queue spawned and resets the counters.
// Goroutines in the middle of executing user code finish that call first.
// Cleanup is idempotent, and a no-op on a queue that was never initialized.
// After Cleanup the queue rejects AddTask and cannot be re-initialized.
func (q *TaskQueue) Cleanup() {
	q.initMu.Lock()
	defer q.initMu.Unlock()

	if !q.initialized.Load() {
		return
	}

	q.shutDown.Store(true)
	close(q.stopCh)

	q.readyMu.Lock()
	q.readyCond.Broadcast()
	q.readyMu.Unlock()

	q.wg.Wait()

	q.readyMu.Lock()
	q.ready = nil
	q.readyMu.Unlock()
	q.mainMu.Lock()
	q.main = nil
	q.mainMu.Unlock()
	q.delayMu.Lock()
	q.delayed.Clear()
	q.delayMu.Unlock()
	q.earliestDeadline.Store(sentinelFuture)

	q.stats.added.Store(0)
	q.stats.completed.Store(0)
	q.stats.suspended.Store(0)
	q.stats.resumed.Store(0)
	q.stats.waiting.Store(0)
	q.stats.total.Store(0)

	q.numBlocking.Store(0)
	q.numNonBlocking.Store(0)
	q.numScheduling.Store(0)
	q.initialized.Store(false)

	q.logger.Info("task queue shut down", F("queue", q.name))
}

// IsInitialized reports whether Initialize has run and Cleanup has not.
func (q *TaskQueue) IsInitialized() bool {
	return q.initialized.Load()
}

// IsShutDown reports whether Cleanup has started.
func (q *TaskQueue) IsShutDown() bool {
	return q.shutDown.Load()
}

// NumWorkerThreads returns the total number of worker goroutines.
func (q *TaskQueue) NumWorkerThreads() uint {
	return uint(q.numBlocking.Load() + q.numNonBlocking.Load())
}

// NumBlockingThreads returns the number of workers that accept blocking tasks.
func (q *TaskQueue) NumBlockingThreads() uint {
	return uint(q.numBlocking.Load())
}

// NumNonBlockingThreads returns the number of workers that skip blocking tasks.
func (q *TaskQueue) NumNonBlockingThreads() uint {
	return uint(q.numNonBlocking.Load())
}

// NumSchedulingThreads returns the number of delay watcher goroutines.
func (q *TaskQueue) NumSchedulingThreads() uint {
	return uint(q.numScheduling.Load())
}

// AddTask submits a task. It returns false without mutating the task when the
// queue is not initialized, is shutting down, or the handle is nil.
func (q *TaskQueue) AddTask(task *Task) bool {
	if task == nil || !q.initialized.Load() || q.shutDown.Load() {
		return false
	}

	q.stats.added.Add(1)

	task.mu.Lock()
	defer task.mu.Unlock()
	return q.addTaskLocked(task, true)
}

// addTaskLocked routes a task to the delay map, the ready queue or the main
// queue according to its live options. Caller holds task.mu. updateTotal is
// false for re-admissions (reschedules, delay promotions) that were already
// counted.
func (q *TaskQueue) addTaskLocked(task *Task, updateTotal bool) bool {
	if task.options.Delay > 0 {
		deadline := time.Now().Add(task.options.Delay)

		q.delayMu.Lock()
		q.insertDelayedLocked(deadline, task)
		q.stats.suspended.Add(1)
		q.stats.waiting.Add(1)
		task.status = TaskSuspended
		q.delayMu.Unlock()

		// Force the watcher to re-read the map even if this deadline is not
		// the earliest.
		q.earliestDeadline.Store(sentinelPast)
		q.wakeDelayWatcher()
	} else if !task.options.IsMainThread {
		q.readyMu.Lock()
		q.ready = append(q.ready, task)
		task.status = TaskInQueue
		q.readyCond.Broadcast()
		q.readyMu.Unlock()

		q.raiseRunningPriority(uint32(task.options.Priority))
	} else {
		q.mainMu.Lock()
		q.main = append(q.main, task)
		task.status = TaskInQueueMain
		q.mainMu.Unlock()

		q.raiseRunningPriority(uint32(task.options.Priority))
	}

	if updateTotal {
		q.stats.total.Add(1)
	}
	return true
}

// insertDelayedLocked appends the task under its deadline key; the map is
// multi-valued because distinct tasks can share a deadline. Caller holds
// delayMu.
func (q *TaskQueue) insertDelayedLocked(deadline time.Time, task *Task) {
	if v, found := q.delayed.Get(deadline); found {
		q.delayed.Put(deadline, append(v.([]*Task), task))
	} else {
		q.delayed.Put(deadline, []*Task{task})
	}
}

// raiseRunningPriority lifts the admission ceiling to p if it is higher.
func (q *TaskQueue) raiseRunningPriority(p uint32) {
	for {
		cur := q.runningPriority.Load()
		if p <= cur || q.runningPriority.CompareAndSwap(cur, p) {
			return
		}
	}
}

// Update serves the queue from the caller's thread. It pokes the delay
// watcher when the earliest deadline has passed, then drains the main-thread
// queue: entries passing the admission test run here, in submission order;
// the rest stay queued for a later Update.
func (q *TaskQueue) Update() {
	if q.shutDown.Load() {
		return
	}

	if q.earliestDeadline.Load() <= time.Now().UnixNano() {
		q.wakeDelayWatcher()
	}

	var run []*Task

	q.mainMu.Lock()
	if len(q.main) > 0 {
		rp := q.runningPriority.Load()
		deferred := make([]*Task, 0, len(q.main))
		for _, t := range q.main {
			// TryLock keeps the task-before-mainMu lock order intact; a
			// contended task is simply deferred to the next Update.
			if !t.mu.TryLock() {
				deferred = append(deferred, t)
				continue
			}
			admit := uint32(t.options.Priority) >= rp
			t.mu.Unlock()
			if admit {
				run = append(run, t)
			} else {
				deferred = append(deferred, t)
			}
		}
		q.main = deferred
	}
	q.mainMu.Unlock()

	for _, t := range run {
		t.execute(q, t)
		q.rescheduleTask(t)
	}
}

// rescheduleTask finishes one dispatch: a task that asked to run again
// re-enters the queue with its reschedule options; otherwise it is counted
// completed and, if it was prioritized, the admission ceiling is released.
func (q *TaskQueue) rescheduleTask(task *Task) {
	task.mu.Lock()
	defer task.mu.Unlock()

	if task.doReschedule {
		task.applyReschedule()
		q.addTaskLocked(task, false)
		return
	}

	if task.options.Priority > 0 {
		// Known limitation: any finishing prioritized task releases the
		// ceiling, even if other high-priority tasks are still in flight.
		// There is no per-priority in-flight counting.
		q.runningPriority.Store(0)
		q.broadcastReady()
	}
	q.stats.total.Add(-1)
	q.stats.completed.Add(1)
}

// GetPerformanceStats snapshots the counters. With reset, the accumulating
// counters (added, completed, suspended, resumed) are atomically zeroed; the
// current-state counters (waiting, total) never reset.
func (q *TaskQueue) GetPerformanceStats(reset bool) PerformanceStats {
	var s PerformanceStats
	if reset {
		s.Added = q.stats.added.Swap(0)
		s.Completed = q.stats.completed.Swap(0)
		s.Suspended = q.stats.suspended.Swap(0)
		s.Resumed = q.stats.resumed.Swap(0)
	} else {
		s.Added = q.stats.added.Load()
		s.Completed = q.stats.completed.Load()
		s.Suspended = q.stats.suspended.Load()
		s.Resumed = q.stats.resumed.Load()
	}
	s.Waiting = q.stats.waiting.Load()
	s.Total = q.stats.total.Load()
	return s
}

// broadcastReady wakes every worker so they re-run the admission scan.
func (q *TaskQueue) broadcastReady() {
	q.readyMu.Lock()
	q.readyCond.Broadcast()
	q.readyMu.Unlock()
}

// wakeDelayWatcher nudges one delay watcher without blocking.
func (q *TaskQueue) wakeDelayWatcher() {
	select {
	case q.delayWake <- struct{}{}:
	default:
	}
}

func (q *TaskQueue) handlePanic(panicInfo any) {
	q.panicHandler.HandlePanic(q.name, panicInfo, debug.Stack())
}
