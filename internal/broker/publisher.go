package broker

import (
	"fmt"
	"log/slog"
	"time"
)

// Publisher публикует события журнала в NATS.
// Реализует journal.Journal: ошибки публикации только логируются.
type Publisher struct {
	broker *Broker
	prefix string

	// now подменяется в тестах.
	now func() time.Time
}

// NewPublisher создаёт издателя событий с префиксом subject.
func NewPublisher(broker *Broker, prefix string) *Publisher {
	return &Publisher{broker: broker, prefix: prefix, now: time.Now}
}

// Record публикует событие. Не блокирует: клиент NATS буферизует отправку.
func (p *Publisher) Record(msg string, critical bool, attrs ...any) {
	if err := p.Publish(msg, critical, attrs...); err != nil {
		slog.Error("publisher: failed", "error", err)
	}
}

// Publish кодирует и публикует событие.
func (p *Publisher) Publish(msg string, critical bool, attrs ...any) error {
	data, err := EncodeEvent(msg, critical, p.now(), attrs)
	if err != nil {
		return err
	}

	subject := Subject(p.prefix, critical)
	slog.Debug("publisher: publishing", "subject", subject, "size", len(data))
	if err := p.broker.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}
