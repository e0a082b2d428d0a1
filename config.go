package taskslib

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"

	"github.com/taskslib/go-tasks-queue/core"
)

// QueueConfig mirrors one queue entry in a container YAML file.
type QueueConfig struct {
	Name               string `yaml:"name"`
	BlockingThreads    uint   `yaml:"blocking_threads"`
	NonBlockingThreads uint   `yaml:"non_blocking_threads"`
	SchedulingThreads  uint   `yaml:"scheduling_threads"`
}

// ContainerConfig mirrors a container YAML file:
//
//	queues:
//	  - name: render
//	    blocking_threads: 6
//	    non_blocking_threads: 2
//	    scheduling_threads: 1
//	  - name: io
//	    blocking_threads: 4
type ContainerConfig struct {
	Queues []QueueConfig `yaml:"queues"`
}

// Configuration converts one entry to a queue configuration, substituting the
// defaults for omitted thread counts.
func (qc QueueConfig) Configuration() core.Configuration {
	cfg := core.DefaultConfiguration()
	if qc.BlockingThreads > 0 {
		cfg.BlockingThreads = qc.BlockingThreads
	}
	if qc.NonBlockingThreads > 0 {
		cfg.NonBlockingThreads = qc.NonBlockingThreads
	}
	if qc.SchedulingThreads > 0 {
		cfg.SchedulingThreads = qc.SchedulingThreads
	}
	return cfg
}

// LoadContainerConfig reads a container declaration from a YAML file.
func LoadContainerConfig(path string) (ContainerConfig, error) {
	var cfg ContainerConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read container config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse container config: %w", err)
	}

	for _, qc := range cfg.Queues {
		if qc.Name == "" {
			return cfg, fmt.Errorf("container config: queue with empty name")
		}
	}
	return cfg, nil
}

// BuildContainer creates a container with one initialized queue per config
// entry. Duplicate names keep the first entry, matching CreateQueue.
func BuildContainer(cfg ContainerConfig) *core.TaskQueueContainer {
	c := core.NewTaskQueueContainer()
	for _, qc := range cfg.Queues {
		c.CreateQueue(qc.Name, qc.Configuration())
	}
	return c
}

// LoadContainer reads a YAML declaration and builds the container in one
// step.
func LoadContainer(path string) (*core.TaskQueueContainer, error) {
	cfg, err := LoadContainerConfig(path)
	if err != nil {
		return nil, err
	}
	return BuildContainer(cfg), nil
}
