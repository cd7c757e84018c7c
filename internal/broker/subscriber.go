package broker

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Subscriber подписка на события сервиса.
type Subscriber struct {
	sub *nats.Subscription
}

// NewSubscriber подписывается на все события с префиксом prefix.
// handler получает уже разобранное событие; сообщения, которые
// не удалось разобрать, пропускаются.
func NewSubscriber(broker *Broker, prefix string, handler func(Event)) (*Subscriber, error) {
	subject := prefix + ".>"
	slog.Debug("subscriber: creating", "subject", subject)

	sub, err := broker.conn.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := DecodeEvent(msg.Data)
		if err != nil {
			slog.Warn("subscriber: bad event", "subject", msg.Subject, "error", err)
			return
		}
		handler(ev)
	})
	if err != nil {
		slog.Error("subscriber: subscribe failed", "subject", subject, "error", err)
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	slog.Info("subscriber: subscribed", "subject", subject)

	return &Subscriber{sub: sub}, nil
}

// Unsubscribe отписывается от событий.
func (s *Subscriber) Unsubscribe() error {
	subject := s.sub.Subject
	slog.Debug("subscriber: unsubscribing", "subject", subject)
	if err := s.sub.Unsubscribe(); err != nil {
		slog.Error("subscriber: unsubscribe failed", "subject", subject, "error", err)
		return err
	}
	return nil
}
