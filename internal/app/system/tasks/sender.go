// internal/app/system/tasks/sender.go

// Package tasks holds the background machinery: the asynchronous mail sender
// and the periodic maintenance jobs.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/covertly/identity/internal/app/system/mailer"
)

// sendTimeout bounds one SMTP delivery attempt.
const sendTimeout = 30 * time.Second

// Sender delivers queued emails on a single background worker. Enqueue never
// blocks a request: when the buffer is full or the sender is stopped the
// email is dropped and logged.
type Sender struct {
	dispatch mailer.Dispatcher
	log      *zap.Logger

	ch     chan mailer.Email
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSender creates a mail sender with the given queue depth.
func NewSender(dispatch mailer.Dispatcher, logger *zap.Logger, buffer int) *Sender {
	if buffer <= 0 {
		buffer = 64
	}
	return &Sender{
		dispatch: dispatch,
		log:      logger,
		ch:       make(chan mailer.Email, buffer),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (s *Sender) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info("mail sender started", zap.Int("buffer", cap(s.ch)))
}

// Stop shuts the worker down after draining emails already queued.
func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("mail sender stopped")
}

// Enqueue hands an email to the worker. It reports whether the email was
// accepted.
func (s *Sender) Enqueue(e mailer.Email) bool {
	select {
	case <-s.stopCh:
		s.log.Warn("mail dropped, sender stopped", zap.String("to", e.To), zap.String("subject", e.Subject))
		return false
	default:
	}

	select {
	case s.ch <- e:
		return true
	default:
		s.log.Warn("mail dropped, queue full", zap.String("to", e.To), zap.String("subject", e.Subject))
		return false
	}
}

func (s *Sender) run() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.ch:
			s.send(e)
		case <-s.stopCh:
			// Drain what is already queued before exiting.
			for {
				select {
				case e := <-s.ch:
					s.send(e)
				default:
					return
				}
			}
		}
	}
}

func (s *Sender) send(e mailer.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := s.dispatch.Send(ctx, e); err != nil {
		s.log.Error("mail delivery failed",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
		return
	}
	s.log.Debug("mail delivered", zap.String("to", e.To), zap.String("subject", e.Subject))
}
