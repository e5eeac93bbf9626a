package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const Topic = "clinic.lifecycle"

type KafkaPublisher struct {
	producer sarama.AsyncProducer
}

// NewKafkaPublisher connects an async producer tuned for throughput over
// strict delivery; lifecycle events tolerate loss.
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}

	go func() {
		for err := range producer.Errors() {
			log.Printf("failed to send lifecycle event: %v", err)
		}
	}()

	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal lifecycle event %s: %v", event.Type, err)
		return
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: Topic,
		Key:   sarama.StringEncoder(event.EntityID.String()),
		Value: sarama.ByteEncoder(bytes),
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
