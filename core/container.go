package core

import "sync"

// TaskQueueContainer owns a set of independently configured queues indexed by
// name. Queues never share state; the only coupling is that Update fans out
// to every one of them.
type TaskQueueContainer struct {
	mu     sync.RWMutex
	queues map[string]*TaskQueue

	logger Logger
}

// NewTaskQueueContainer creates an empty container.
func NewTaskQueueContainer() *TaskQueueContainer {
	return &TaskQueueContainer{
		queues: make(map[string]*TaskQueue),
		logger: NewNoOpLogger(),
	}
}

// SetLogger replaces the container's logger; queues created afterwards
// inherit it.
func (c *TaskQueueContainer) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
}

// CreateQueue constructs and initializes a queue under the given name. A name
// that already exists is a silent no-op.
func (c *TaskQueueContainer) CreateQueue(name string, config Configuration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.queues[name]; exists {
		return
	}

	q := NewNamedTaskQueue(name)
	q.SetLogger(c.logger)
	q.Initialize(config)
	c.queues[name] = q
}

// GetQueue returns the queue registered under name, or nil.
func (c *TaskQueueContainer) GetQueue(name string) *TaskQueue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queues[name]
}

// GetQueuesCount returns the number of queues in the container.
func (c *TaskQueueContainer) GetQueuesCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.queues)
}

// Update calls Update on every queue, in no particular order.
func (c *TaskQueueContainer) Update() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.queues {
		q.Update()
	}
}

// Cleanup shuts down every owned queue. The container stays usable for
// lookups afterwards, but the queues reject new tasks.
func (c *TaskQueueContainer) Cleanup() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.queues {
		q.Cleanup()
	}
}
