// Package events streams pipeline outcomes to Kafka and consumes
// remote commands, letting external tooling watch and drive the bot.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"contentorbit/config"
	"contentorbit/orchestrator"
)

// Producer publishes pipeline results to the events topic
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects to the brokers. Returns nil without error when
// no brokers are configured, so callers can treat the stream as
// optional.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}

	topic := cfg.EventsTopic
	if topic == "" {
		topic = "contentorbit.events"
	}
	log.Printf("✅ Kafka producer connected (topic: %s)", topic)
	return &Producer{producer: producer, topic: topic}, nil
}

// PublishResult emits one pipeline outcome, keyed by post ID so all
// events for a post land on the same partition.
func (p *Producer) PublishResult(ctx context.Context, result *orchestrator.PipelineResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(payload),
	}
	if result.PostID != "" {
		msg.Key = sarama.StringEncoder(result.PostID)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	log.Printf("📤 Event sent: partition=%d offset=%d post=%s", partition, offset, result.PostID)
	return nil
}

// Close flushes and shuts down the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
