package publisher

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	r "github.com/yingmeanshard/yingshop/internal/order/repository"
)

// MessageWriter is the slice of kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains unprocessed outbox rows to Kafka. Events are written in
// the same transaction as the order change, so everything committed is
// eventually published at least once. A circuit breaker keeps a dead broker
// from hammering every tick.
type OutboxPoller struct {
	eventTick time.Duration
	batchSize int
	repo      r.OrderRepository
	writer    MessageWriter
	breaker   *gobreaker.CircuitBreaker[any]
}

func NewOutboxPoller(repo r.OrderRepository, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newPoller(repo, w)
}

func newPoller(repo r.OrderRepository, writer MessageWriter) *OutboxPoller {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "order-events-kafka",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &OutboxPoller{
		eventTick: time.Second,
		batchSize: 100,
		repo:      repo,
		writer:    writer,
		breaker:   cb,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.publishToKafka(ctx, event)
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.repo.MarkEventAsProcessed(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for ordering
		Value: event.Payload,             // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	return err
}
