package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/questx-lab/reputation/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, ProducerConfig("test"))
	publisher := NewPublisherWithProducer(producer)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return now }

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "progression_events" {
			return errors.New("unexpected topic " + m.Topic)
		}

		key, err := m.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "alice" {
			return errors.New("unexpected key " + string(key))
		}

		if !m.Timestamp.Equal(now) {
			return errors.New("unexpected timestamp")
		}

		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pack := &pubsub.Pack{Key: []byte("alice"), Msg: []byte(`{"new_level":2}`)}
	require.NoError(t, publisher.Publish(context.Background(), "progression_events", pack))

	err := publisher.Publish(context.Background(), "progression_events", pack)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, publisher.Stop(context.Background()))
}

func TestPublisher_CanceledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewPublisherWithProducer(producer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Publish(ctx, "progression_events", &pubsub.Pack{Msg: []byte("{}")})
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, producer.Close())
}
