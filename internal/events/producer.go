package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const DefaultOrderTopic = "orders.changes"

// Publisher announces a committed change on the orders table.
type Publisher interface {
	PublishOrderChange(ctx context.Context, change models.OrderChange) error
}

// Sink receives changes on the consuming side, typically the websocket hub.
type Sink interface {
	BroadcastOrderChange(change models.OrderChange)
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return newKafkaProducer(producer, topic, logger), nil
}

func newKafkaProducer(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaProducer {
	if topic == "" {
		topic = DefaultOrderTopic
	}
	return &KafkaProducer{producer: producer, topic: topic, logger: logger}
}

// PublishOrderChange keys the message by order id so every change to one
// order lands on the same partition in commit order.
func (p *KafkaProducer) PublishOrderChange(ctx context.Context, change models.OrderChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if change.EventTime.IsZero() {
		change.EventTime = time.Now().UTC()
	}

	data, err := json.Marshal(change)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(change.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
		"order_id":  change.OrderID,
		"type":      change.Type,
	}).Info("Order change published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// LocalPublisher hands changes straight to a sink. Used when no broker is
// configured and a single instance serves every admin session.
type LocalPublisher struct {
	sink Sink
}

func NewLocalPublisher(sink Sink) *LocalPublisher {
	return &LocalPublisher{sink: sink}
}

func (p *LocalPublisher) PublishOrderChange(ctx context.Context, change models.OrderChange) error {
	if change.EventTime.IsZero() {
		change.EventTime = time.Now().UTC()
	}
	p.sink.BroadcastOrderChange(change)
	return nil
}
