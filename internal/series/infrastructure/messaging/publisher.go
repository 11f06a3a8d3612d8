// Package messaging 领域事件 Kafka 发布者
package messaging

import (
	"context"
	"encoding/json"

	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/pkg/mq"
)

// Envelope 事件信封，消费端按 Type 分发
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type kafkaPublisher struct {
	producer *mq.KafkaProducer
}

func NewKafkaPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.SendMessage(ctx, topic, key, Envelope{
		Type:    event.EventType(),
		Payload: payload,
	})
}
