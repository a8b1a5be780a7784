package companies

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sdstartups/startupmap-backend/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

// KafkaWriter is the part of kafka.Writer the producer uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CompanyProducer publishes directory change events. Publish never blocks:
// events are queued and written by a background loop, and dropped when the
// queue is full.
type CompanyProducer struct {
	writer    KafkaWriter
	events    chan CompanyEvent
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
	now       func() time.Time
}

// NewCompanyProducer initializes a Kafka writer for company events and starts
// the delivery loop.
func NewCompanyProducer(brokers []string, topic string, dialer *kafka.Dialer, logger *zap.Logger) *CompanyProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	if dialer != nil && (dialer.TLS != nil || dialer.SASLMechanism != nil) {
		writer.Transport = &kafka.Transport{
			TLS:  dialer.TLS,
			SASL: dialer.SASLMechanism,
		}
	}
	return newCompanyProducer(writer, 1000, logger)
}

func newCompanyProducer(writer KafkaWriter, queue int, logger *zap.Logger) *CompanyProducer {
	p := &CompanyProducer{
		writer:    writer,
		events:    make(chan CompanyEvent, queue),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	go p.eventLoop()
	return p
}

// Publish queues an event about company.
func (p *CompanyProducer) Publish(eventType EventType, company model.Company) {
	event := CompanyEvent{
		EventType:     eventType,
		EventID:       uuid.New().String(),
		EventTime:     p.now().UTC(),
		SchemaVersion: SchemaVersion,
		Company:       company,
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("company_id", company.UUID.String()),
		)
	}
}

func (p *CompanyProducer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *CompanyProducer) sendEvent(ctx context.Context, event CompanyEvent) {
	payload, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("company_id", event.Company.UUID.String()),
		)
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Company.UUID.String()),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.EventType)),
			zap.String("company_id", event.Company.UUID.String()),
		)
	}
}

// Close stops the delivery loop and cleans up the Kafka writer. Queued events
// that were not written yet are dropped.
func (p *CompanyProducer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
