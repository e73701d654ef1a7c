package scale

import (
	"sync"
	"time"
)

// Task is a recurring job. Every returns the handle; Stop ends it. A tick
// already handed to fire may still arrive after Stop, so receivers compare
// the task they got with the one they hold.
type Task struct {
	stop chan struct{}
	once sync.Once
}

func Every(interval time.Duration, fire func(*Task)) *Task {
	t := &Task{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fire(t)
			}
		}
	}()

	return t
}

func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stop) })
}

func (t *Task) Stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}
