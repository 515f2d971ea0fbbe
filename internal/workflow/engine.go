package workflow

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"estate/server/internal/models"
)

// Publisher receives the events of committed operations.
type Publisher interface {
	Publish(events ...models.Event) error
}

// Engine runs the business operations on properties, offers and types.
type Engine struct {
	store           models.Store
	publisher       Publisher
	logger          *logrus.Logger
	clock           func() time.Time
	locks           *keyedMutex
	defaultValidity int
}

type Option func(*Engine)

// WithClock overrides the time source used for dates and deadlines.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithDefaultValidity sets the validity given to offers created without one.
func WithDefaultValidity(days int) Option {
	return func(e *Engine) { e.defaultValidity = days }
}

// WithPublisher sets where committed events are sent.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func NewEngine(store models.Store, logger *logrus.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	e := &Engine{
		store:           store,
		logger:          logger,
		clock:           time.Now,
		locks:           newKeyedMutex(),
		defaultValidity: models.DefaultOfferValidity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() time.Time {
	return e.clock()
}

func (e *Engine) today() time.Time {
	return models.DateOf(e.clock())
}

func (e *Engine) newEvent(eventType models.EventType) models.Event {
	return models.NewEvent(eventType, e.now())
}

// publish never fails the operation that produced the events.
func (e *Engine) publish(events ...models.Event) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.Publish(events...); err != nil {
		e.logger.WithError(err).WithField("events", len(events)).Warn("Failed to publish workflow events")
	}
}
