// Package events publishes contract lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	ContractSubmitted  = "contract.submitted"
	ContractDraftSaved = "contract.draft_saved"
	ContractsUpdated   = "contracts.bulk_updated"
	ContractsDeleted   = "contracts.deleted"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "contract-events"

// Event is the JSON payload written to the topic.
type Event struct {
	Type           string            `json:"type"`
	ContractID     string            `json:"contractId,omitempty"`
	ContractNumber string            `json:"contractNumber,omitempty"`
	ContractIDs    []string          `json:"contractIds,omitempty"`
	Changes        map[string]string `json:"changes,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
}

// Publisher delivers events somewhere. Callers treat failures as soft.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic, keyed by contract id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a writer for a comma separated broker list.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	addrs := strings.Split(brokers, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	log.Printf("✅ Kafka producer connected to %s (topic %s)", brokers, topic)
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", e.Type, p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func message(e Event) (kafka.Message, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	key := e.ContractID
	if key == "" && len(e.ContractIDs) > 0 {
		key = e.ContractIDs[0]
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}, nil
}

// LogPublisher only logs events. It is used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	log.Printf("📣 %s contract=%s %v", e.Type, e.ContractID, e.ContractIDs)
	return nil
}

func (LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = LogPublisher{}
)
