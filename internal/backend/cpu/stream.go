package cpu

import (
	"errors"
	"sync"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

var errStreamStopped = errors.New("stream destroyed")

// stream executes queued tasks in issue order on one worker goroutine.
// A task error is sticky until the next synchronization, as on a device.
type stream struct {
	id    native.Stream
	tasks chan func() error
	done  chan struct{}

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	err     error
	stopped bool
}

func newStream(id native.Stream) *stream {
	s := &stream{
		id:    id,
		tasks: make(chan func() error, 1024),
		done:  make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	go s.worker()
	return s
}

func (s *stream) worker() {
	defer close(s.done)
	for task := range s.tasks {
		err := task()
		s.mu.Lock()
		if err != nil && s.err == nil {
			s.err = err
		}
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}
}

func (s *stream) enqueue(task func() error) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return errStreamStopped
	}
	// Counted before the send so stop waits for it before closing the channel.
	s.pending++
	s.mu.Unlock()
	s.tasks <- task
	return nil
}

// run enqueues task and waits for it, returning its own error rather than
// recording it on the stream.
func (s *stream) run(task func() error) error {
	result := make(chan error, 1)
	if err := s.enqueue(func() error {
		result <- task()
		return nil
	}); err != nil {
		return err
	}
	return <-result
}

func (s *stream) drain() {
	s.mu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

func (s *stream) sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	err := s.err
	s.err = nil
	return err
}

func (s *stream) stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()

	close(s.tasks)
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
