package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"gym-buddy/internal/config"
	"gym-buddy/internal/imtypes"
)

// MessageProducer defines the interface for a Kafka message producer.
type MessageProducer interface {
	SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error
	Close()
}

// confluentKafkaProducer is an implementation of MessageProducer using confluent-kafka-go.
type confluentKafkaProducer struct {
	producer *kafka.Producer
	cfg      config.KafkaConfig
}

// NewConfluentKafkaProducer creates a new Kafka producer instance using confluent-kafka-go.
func NewConfluentKafkaProducer(cfg config.KafkaConfig) (MessageProducer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"security.protocol": cfg.Protocol,
		"acks":              "all",
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &confluentKafkaProducer{producer: p, cfg: cfg}, nil
}

// SendMessage sends a single message and waits for its delivery report.
func (p *confluentKafkaProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	deliveryChan := make(chan kafka.Event, 1)

	kafkaMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          payload,
		Timestamp:      time.Now(),
	}

	if err := p.producer.Produce(kafkaMsg, deliveryChan); err != nil {
		// 本地错误，例如发送队列已满
		return fmt.Errorf("kafka producer failed to enqueue message for topic %s: %w", topic, err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("kafka producer: unexpected event type received on delivery channel: %T %v", e, e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka producer: delivery failed for topic %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka producer: context canceled while waiting for delivery report for topic %s: %w", topic, ctx.Err())
	}
}

// Close flushes any outstanding messages and closes the Kafka producer.
func (p *confluentKafkaProducer) Close() {
	if p.producer == nil {
		return
	}
	log.Println("Closing Kafka producer...")
	if remaining := p.producer.Flush(15 * 1000); remaining > 0 {
		log.Printf("Warning: %d messages still outstanding after flush, producer closing.", remaining)
	}
	p.producer.Close()
	log.Println("Kafka producer closed.")
}

// nopProducer 在未启用 Kafka 时使用，只记录日志。
type nopProducer struct{}

// NewNopProducer returns a MessageProducer that drops every message.
func NewNopProducer() MessageProducer {
	return nopProducer{}
}

func (nopProducer) SendMessage(_ context.Context, topic string, key []byte, _ []byte) error {
	log.Printf("Kafka 未启用，丢弃发往 %s 的消息 (key=%s)", topic, key)
	return nil
}

func (nopProducer) Close() {}

// EventPublisher 把资料事件序列化后写入事件主题，按接收者分区以保证单个用户的事件有序。
type EventPublisher struct {
	producer MessageProducer
	topic    string
}

func NewEventPublisher(producer MessageProducer, topic string) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic}
}

// Publish sends one event keyed by its recipient.
func (p *EventPublisher) Publish(ctx context.Context, event imtypes.ProfileEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.producer.SendMessage(ctx, p.topic, []byte(event.RecipientID), payload)
}
