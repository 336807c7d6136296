package internal

import (
	"sync"
)

// Scheduler runs deferred tasks one at a time in submission order on its own
// goroutine. Completion actions go through it so a request's future always
// settles before the store sees the outcome.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	closed  bool
	running bool
	done    chan struct{}
}

// NewScheduler starts a scheduler worker.
func NewScheduler() *Scheduler {
	s := &Scheduler{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Defer queues task. It reports false when the scheduler is closed, in which
// case the task runs on the caller's goroutine instead.
func (s *Scheduler) Defer(task func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		task()
		return false
	}
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	s.cond.Broadcast()
	return true
}

// Idle blocks until no task is queued or running.
func (s *Scheduler) Idle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.tasks) > 0 || s.running {
		s.cond.Wait()
	}
}

// Close runs the queued tasks and stops the worker.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.tasks) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.tasks) == 0 && s.closed {
			s.mu.Unlock()
			s.cond.Broadcast()
			return
		}
		task := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.running = true
		s.mu.Unlock()

		task()

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.cond.Broadcast()
	}
}
