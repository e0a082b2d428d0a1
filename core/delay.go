package core

import (
	"time"
)

// longSleep stands in for "no deadline"; the watcher is always woken through
// delayWake before a new deadline could matter.
const longSleep = 1000 * time.Hour

// delayLoop is the main loop for one delay watcher goroutine. It sleeps until
// the earliest deadline in the delay map passes, then promotes every due task
// back into the queue. AddTask and Update nudge it through delayWake whenever
// the deadline picture may have changed.
func (q *TaskQueue) delayLoop(id uint, stopCh <-chan struct{}) {
	defer q.wg.Done()
	q.logger.Debug("delay watcher started", F("queue", q.name), F("worker", id))

	timer := time.NewTimer(longSleep)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		wait := q.untilEarliestDeadline()
		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-stopCh:
				timer.Stop()
				q.logger.Debug("delay watcher stopped", F("queue", q.name), F("worker", id))
				return
			case <-q.delayWake:
				// Deadlines changed; recompute the wait.
				if !timer.Stop() {
					<-timer.C
				}
				continue
			case <-timer.C:
			}
		} else {
			select {
			case <-stopCh:
				q.logger.Debug("delay watcher stopped", F("queue", q.name), F("worker", id))
				return
			default:
			}
		}

		q.promoteDueTasks()
	}
}

// untilEarliestDeadline converts the earliestDeadline atomic into a wait
// duration. A past sentinel yields zero and an elapsed deadline yields a
// negative duration; the caller treats both as "promote now".
func (q *TaskQueue) untilEarliestDeadline() time.Duration {
	earliest := q.earliestDeadline.Load()
	if earliest == sentinelFuture {
		return longSleep
	}
	if earliest == sentinelPast {
		return 0
	}
	return time.Until(time.Unix(0, earliest))
}

// promoteDueTasks drains every delay-map entry whose deadline has elapsed and
// re-submits the tasks. The delay lock is released before the tasks are
// touched, preserving the task-lock-first order; each promoted task has its
// delay zeroed so re-admission routes it to the ready or main queue, and is
// re-submitted with its total count intact.
func (q *TaskQueue) promoteDueTasks() {
	now := time.Now()
	var due []*Task

	q.delayMu.Lock()
	var dueKeys []time.Time
	it := q.delayed.Iterator()
	for it.Next() {
		deadline := it.Key().(time.Time)
		if !deadline.Before(now) {
			break
		}
		dueKeys = append(dueKeys, deadline)
		due = append(due, it.Value().([]*Task)...)
	}
	for _, k := range dueKeys {
		q.delayed.Remove(k)
	}
	if k, _ := q.delayed.Min(); k != nil {
		q.earliestDeadline.Store(k.(time.Time).UnixNano())
	} else {
		q.earliestDeadline.Store(sentinelFuture)
	}
	q.delayMu.Unlock()

	for _, t := range due {
		t.mu.Lock()
		t.options.Delay = 0
		q.stats.resumed.Add(1)
		q.stats.waiting.Add(-1)
		q.addTaskLocked(t, false)
		t.mu.Unlock()
	}
}
