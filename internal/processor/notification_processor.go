package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"estate/server/config"
	"estate/server/internal/models"
	"estate/server/internal/queue"
)

// Notifier delivers a single workflow event.
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// NotificationProcessor hands queued events to the notifier with retries
type NotificationProcessor struct {
	notifier   Notifier
	logger     *logrus.Logger
	queue      *queue.EventQueue
	maxRetries int
	retryDelay time.Duration
	inFlight   sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	startOnce  sync.Once
}

// NewNotificationProcessor creates a new processor instance
func NewNotificationProcessor(notifier Notifier, queue *queue.EventQueue, cfg *config.Config, logger *logrus.Logger) *NotificationProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationProcessor{
		notifier:   notifier,
		queue:      queue,
		maxRetries: cfg.Notifications.MaxRetries,
		retryDelay: cfg.Notifications.RetryDelay,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes the processor to the queue
func (p *NotificationProcessor) Start() {
	p.startOnce.Do(func() {
		p.queue.Subscribe(p.processBatch)
	})
}

// Stop aborts pending retries and waits for the batch being processed
func (p *NotificationProcessor) Stop() {
	p.cancel()
	p.inFlight.Wait()
}

func (p *NotificationProcessor) processBatch(batch []models.Event) error {
	p.inFlight.Add(1)
	defer p.inFlight.Done()

	var failed int
	for _, event := range batch {
		if err := p.deliver(event); err != nil {
			failed++
			p.logger.WithError(err).WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.Type,
			}).Error("Dropping notification")
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to deliver %d of %d events", failed, len(batch))
	}
	return nil
}

// deliver sends one event, retrying up to maxRetries times
func (p *NotificationProcessor) deliver(event models.Event) error {
	var err error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying notification %s, attempt %d of %d", event.ID, attempt, p.maxRetries)
			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}

		err = p.notifier.Notify(p.ctx, event)
		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.Type,
			}).Debug("Notification delivered")
			return nil
		}
		if p.ctx.Err() != nil {
			return p.ctx.Err()
		}

		p.logger.Errorf("Notification failed: %v", err)
	}

	return fmt.Errorf("failed to deliver event after %d retries: %w", p.maxRetries, err)
}
