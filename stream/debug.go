package stream

import (
	"fmt"
	"sync"

	"github.com/kbukum/rxkit/logger"
)

// Events holds optional hooks called as signals pass through HandleEvents.
// Nil hooks are skipped.
type Events[T any] struct {
	OnSubscribe  func()
	OnValue      func(v T)
	OnCompletion func(c Completion)
	OnCancel     func()
	OnRequest    func(d Demand)
}

// HandleEvents calls the hooks in ev for every signal and passes the
// signal on unchanged.
func HandleEvents[T any](p Publisher[T], ev Events[T]) Publisher[T] {
	return PublisherFunc[T](func(down Subscriber[T]) {
		p.Subscribe(&eventSubscriber[T]{down: down, ev: ev})
	})
}

type eventSubscriber[T any] struct {
	down Subscriber[T]
	ev   Events[T]
}

func (e *eventSubscriber[T]) OnSubscribe(s Subscription) {
	if e.ev.OnSubscribe != nil {
		e.ev.OnSubscribe()
	}
	e.down.OnSubscribe(&eventSubscription[T]{Subscription: s, ev: &e.ev})
}

func (e *eventSubscriber[T]) OnValue(v T) Demand {
	if e.ev.OnValue != nil {
		e.ev.OnValue(v)
	}
	more := e.down.OnValue(v)
	if !more.IsNone() && e.ev.OnRequest != nil {
		e.ev.OnRequest(more)
	}
	return more
}

func (e *eventSubscriber[T]) OnCompletion(c Completion) {
	if e.ev.OnCompletion != nil {
		e.ev.OnCompletion(c)
	}
	e.down.OnCompletion(c)
}

type eventSubscription[T any] struct {
	Subscription
	ev   *Events[T]
	once sync.Once
}

func (s *eventSubscription[T]) Request(d Demand) {
	if s.ev.OnRequest != nil {
		s.ev.OnRequest(d)
	}
	s.Subscription.Request(d)
}

// Cancel reports the first cancel only, matching the subscription it wraps.
func (s *eventSubscription[T]) Cancel() {
	s.once.Do(func() {
		if s.ev.OnCancel != nil {
			s.ev.OnCancel()
		}
		s.Subscription.Cancel()
	})
}

// Print logs every signal of p at info level, each message prefixed with
// prefix. A nil log uses logger.Get(logger.ComponentStream).
func Print[T any](p Publisher[T], prefix string, log *logger.Logger) Publisher[T] {
	if log == nil {
		log = logger.Get(logger.ComponentStream)
	}
	msg := func(event string) string {
		if prefix == "" {
			return event
		}
		return prefix + ": " + event
	}
	return HandleEvents(p, Events[T]{
		OnSubscribe: func() { log.Info(msg("subscribed")) },
		OnValue: func(v T) {
			log.Info(msg("value"), logger.Fields(logger.FieldValue, fmt.Sprint(v)))
		},
		OnCompletion: func(c Completion) {
			if c.Err != nil {
				log.Info(msg("failed"), logger.ErrorFields("complete", c.Err))
				return
			}
			log.Info(msg("finished"))
		},
		OnCancel: func() { log.Info(msg("cancelled")) },
		OnRequest: func(d Demand) {
			log.Info(msg("request"), logger.Fields(logger.FieldDemand, d.String()))
		},
	})
}
