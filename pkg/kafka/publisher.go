package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/questx-lab/reputation/pkg/pubsub"
)

// Publisher sends packs synchronously. A pack is acknowledged only after every
// in-sync replica stored it, packs with the same key land on the same
// partition.
type Publisher struct {
	producer sarama.SyncProducer
	now      func() time.Time
}

func NewPublisher(clientID string, brokerAddrs []string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokerAddrs, ProducerConfig(clientID))
	if err != nil {
		return nil, err
	}

	return NewPublisherWithProducer(producer), nil
}

// ProducerConfig is the sarama configuration used by NewPublisher.
func ProducerConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Idempotent = true
	config.Producer.Retry.Max = 5
	config.Net.MaxOpenRequests = 1
	config.Version = sarama.V2_1_0_0
	return config
}

func NewPublisherWithProducer(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer, now: time.Now}
}

func (p *Publisher) Stop(context.Context) error {
	return p.producer.Close()
}

func (p *Publisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(pack.Msg),
		Timestamp: p.now(),
	}
	if len(pack.Key) > 0 {
		m.Key = sarama.ByteEncoder(pack.Key)
	}

	if _, _, err := p.producer.SendMessage(m); err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}

	return nil
}
