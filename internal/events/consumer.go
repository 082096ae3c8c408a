package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// KafkaConsumer forwards order changes from the topic to a sink.
type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	sink          Sink
	logger        *logrus.Logger
	topics        []string
}

type consumerGroupHandler struct {
	sink   Sink
	logger *logrus.Logger
}

// InstanceGroupID names a consumer group unique to this process. Every
// instance must see every change, so instances never share a group.
func InstanceGroupID(prefix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return fmt.Sprintf("%s-%s-%d", prefix, host, os.Getpid())
}

func NewKafkaConsumer(brokers []string, topic, groupID string, sink Sink, logger *logrus.Logger) (*KafkaConsumer, error) {
	if topic == "" {
		topic = DefaultOrderTopic
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	// Only live changes matter; a dashboard catches up with a full reload.
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Version = sarama.V2_6_0_0

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		sink:          sink,
		logger:        logger,
		topics:        []string{topic},
	}, nil
}

func (c *KafkaConsumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{
		sink:   c.sink,
		logger: c.logger,
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Kafka consumer context cancelled")
			return nil
		default:
			if err := c.consumerGroup.Consume(ctx, c.topics, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				c.logger.WithError(err).Error("Error consuming from Kafka")
				return err
			}
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.consumerGroup.Close()
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer group session setup")
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer group session cleanup")
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.handleMessage(message); err != nil {
				h.logger.WithFields(logrus.Fields{
					"partition": message.Partition,
					"offset":    message.Offset,
				}).WithError(err).Error("Dropping undecodable order change")
			}
			// Poison messages are skipped too; replaying them would not help.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) handleMessage(message *sarama.ConsumerMessage) error {
	change, err := DecodeOrderChange(message.Value)
	if err != nil {
		return err
	}
	h.logger.WithFields(logrus.Fields{
		"order_id": change.OrderID,
		"type":     change.Type,
	}).Debug("Received order change")
	h.sink.BroadcastOrderChange(change)
	return nil
}

// DecodeOrderChange parses and checks one message payload.
func DecodeOrderChange(data []byte) (models.OrderChange, error) {
	var change models.OrderChange
	if err := json.Unmarshal(data, &change); err != nil {
		return change, fmt.Errorf("invalid order change: %w", err)
	}
	switch change.Type {
	case models.ChangeInsert, models.ChangeUpdate:
		if change.Order == nil {
			return change, fmt.Errorf("%s change for %s carries no order", change.Type, change.OrderID)
		}
		if change.OrderID == "" {
			change.OrderID = change.Order.ID
		}
	case models.ChangeDelete:
		if change.OrderID == "" {
			return change, errors.New("delete change carries no order id")
		}
	default:
		return change, fmt.Errorf("unknown change type %q", change.Type)
	}
	return change, nil
}
