package core

import "runtime"

// workerLoop is the main loop for one worker goroutine. Workers created with
// ignoreBlocking skip tasks flagged as blocking so short work keeps its
// latency.
func (q *TaskQueue) workerLoop(id uint, ignoreBlocking bool) {
	defer q.wg.Done()
	q.logger.Debug("worker started",
		F("queue", q.name), F("worker", id), F("ignoreBlocking", ignoreBlocking))

	for {
		task := q.nextReadyTask(ignoreBlocking)
		if task == nil {
			q.logger.Debug("worker stopped", F("queue", q.name), F("worker", id))
			return
		}

		task.execute(q, task)
		q.rescheduleTask(task)
	}
}

// nextReadyTask blocks until an admissible task is available or the queue
// shuts down, in which case it returns nil.
func (q *TaskQueue) nextReadyTask(ignoreBlocking bool) *Task {
	q.readyMu.Lock()
	for {
		if q.shutDown.Load() {
			q.readyMu.Unlock()
			return nil
		}

		task, contended := q.scanReadyLocked(ignoreBlocking)
		if task != nil {
			q.readyMu.Unlock()
			return task
		}

		if contended {
			// A candidate's lock was held for an instant; retry instead of
			// sleeping, because nobody is guaranteed to signal again.
			q.readyMu.Unlock()
			runtime.Gosched()
			q.readyMu.Lock()
			continue
		}

		q.readyCond.Wait()
	}
}

// scanReadyLocked walks the ready queue front-to-back and removes the first
// task that passes the admission test:
//
//	!(blocking && ignoreBlocking) && priority >= runningPriority
//
// Rejected tasks keep their position; when the ceiling drops they become
// eligible again without losing their place. Caller holds readyMu. The
// second result reports whether any candidate was skipped only because its
// task lock was contended.
func (q *TaskQueue) scanReadyLocked(ignoreBlocking bool) (*Task, bool) {
	contended := false
	rp := q.runningPriority.Load()

	for i, t := range q.ready {
		if !t.mu.TryLock() {
			contended = true
			continue
		}
		admit := !(t.options.IsBlocking && ignoreBlocking) &&
			uint32(t.options.Priority) >= rp
		t.mu.Unlock()

		if admit {
			copy(q.ready[i:], q.ready[i+1:])
			q.ready[len(q.ready)-1] = nil // release the stale slot
			q.ready = q.ready[:len(q.ready)-1]
			return t, contended
		}
	}
	return nil, contended
}
