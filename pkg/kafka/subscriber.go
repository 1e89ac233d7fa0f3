package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/Shopify/sarama"
	"github.com/questx-lab/reputation/pkg/pubsub"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

type subscriber struct {
	groupID     string
	brokerAddrs []string
	topics      []string
	client      sarama.ConsumerGroup
	handler     pubsub.SubscribeHandler
}

func NewSubscriber(
	clientID string,
	groupID string,
	brokerAddrs []string,
	topics []string,
	handler pubsub.SubscribeHandler,
) (*subscriber, error) {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(brokerAddrs, groupID, config)
	if err != nil {
		return nil, err
	}

	return &subscriber{
		groupID:     groupID,
		brokerAddrs: brokerAddrs,
		topics:      topics,
		client:      client,
		handler:     handler,
	}, nil
}

func (s *subscriber) Stop(ctx context.Context) error {
	return s.client.Close()
}

func (s *subscriber) Subscribe(ctx context.Context) {
	consumer := &consumerGroupHandler{
		ctx:   ctx,
		ready: make(chan struct{}),
		fn:    s.handler,
	}

	go func() {
		for {
			// Consume returns on every server-side rebalance, the session is
			// recreated by calling it again.
			if err := s.client.Consume(ctx, s.topics, consumer); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				xcontext.Logger(ctx).Errorf("Error from consumer: %v", err)
			}

			if ctx.Err() != nil {
				return
			}

			consumer.ready = make(chan struct{})
		}
	}()

	select {
	case <-consumer.ready:
	case <-ctx.Done():
	}
}

type consumerGroupHandler struct {
	// ctx carries the process values (database, logger, configs), the
	// session context does not.
	ctx   context.Context
	ready chan struct{}
	fn    pubsub.SubscribeHandler
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks a message only after the handler succeeded. On failure
// the claim stops without marking it, which ends the session, the message is
// consumed again from the last marked offset once the group rejoins.
func (h *consumerGroupHandler) ConsumeClaim(
	session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim,
) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			xcontext.Logger(h.ctx).Debugf("Received message of topic %s at offset %d", message.Topic, message.Offset)
			timestamp := message.Timestamp
			if timestamp.IsZero() {
				timestamp = time.Now()
			}

			err := h.fn(h.ctx, message.Topic, &pubsub.Pack{
				Key: message.Key,
				Msg: message.Value,
			}, timestamp)
			if err != nil {
				xcontext.Logger(h.ctx).Errorf("Unable to handle message of topic %s at offset %d: %v",
					message.Topic, message.Offset, err)
				return err
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}
