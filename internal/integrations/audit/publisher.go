package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher публикует события аудита в Kafka в режиме fire-and-forget.
// Ошибки доставки логируются и никогда не возвращаются вызывающему.
type KafkaPublisher struct {
	writer   *kafka.Writer
	log      Logger
	failures FailureObserver
}

// NewKafkaPublisher создает асинхронного издателя. failures может быть nil.
func NewKafkaPublisher(brokers []string, topic string, log Logger, failures FailureObserver) *KafkaPublisher {
	p := &KafkaPublisher{log: log, failures: failures}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Completion:   p.onCompletion,
	}
	return p
}

// Publish ставит событие в очередь на отправку
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.fail("Audit: marshal event %s: %v", event.ID, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AppointmentID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	// В асинхронном режиме WriteMessages возвращает только ошибки постановки в очередь
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.fail("Audit: enqueue event %s (%s): %v", event.ID, event.Type, err)
	}
}

// Close дожидается отправки буфера и закрывает соединения
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) onCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		p.fail("Audit: deliver event key=%s: %v", string(m.Key), err)
	}
}

func (p *KafkaPublisher) fail(format string, v ...interface{}) {
	p.log.Error(format, v...)
	if p.failures != nil {
		p.failures.ObserveAuditFailure()
	}
}

// NoopPublisher используется, когда Kafka не настроена
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}

func (NoopPublisher) Close() error { return nil }
