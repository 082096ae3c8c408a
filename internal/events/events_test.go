package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/sirupsen/logrus"
)

type recordingSink struct {
	changes []models.OrderChange
}

func (s *recordingSink) BroadcastOrderChange(change models.OrderChange) {
	s.changes = append(s.changes, change)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestKafkaProducerPublishesChange(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, config)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		change, err := DecodeOrderChange(val)
		if err != nil {
			return err
		}
		if change.OrderID != "o-1" || change.EventTime.IsZero() {
			return errors.New("unexpected payload")
		}
		return nil
	})

	producer := newKafkaProducer(mock, "", quietLogger())
	if producer.topic != DefaultOrderTopic {
		t.Errorf("Expected default topic, got %s", producer.topic)
	}

	err := producer.PublishOrderChange(context.Background(), models.OrderChange{
		Type:    models.ChangeInsert,
		OrderID: "o-1",
		Order:   &models.Order{ID: "o-1"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestKafkaProducerReportsFailure(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, config)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := newKafkaProducer(mock, "orders", quietLogger())
	err := producer.PublishOrderChange(context.Background(), models.OrderChange{
		Type:    models.ChangeDelete,
		OrderID: "o-2",
	})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("Expected broker error, got %v", err)
	}
	producer.Close()
}

func TestLocalPublisherStampsEventTime(t *testing.T) {
	sink := &recordingSink{}
	publisher := NewLocalPublisher(sink)

	if err := publisher.PublishOrderChange(context.Background(), models.OrderChange{
		Type:    models.ChangeUpdate,
		OrderID: "o-3",
		Order:   &models.Order{ID: "o-3"},
	}); err != nil {
		t.Fatal(err)
	}
	if len(sink.changes) != 1 || sink.changes[0].EventTime.IsZero() {
		t.Errorf("Unexpected sink contents %+v", sink.changes)
	}
}

func TestDecodeOrderChange(t *testing.T) {
	full, _ := json.Marshal(models.OrderChange{Type: models.ChangeUpdate, Order: &models.Order{ID: "o-4"}})
	change, err := DecodeOrderChange(full)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if change.OrderID != "o-4" {
		t.Errorf("Expected order id backfilled from order, got %q", change.OrderID)
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{`},
		{"insert without order", `{"type":"INSERT","order_id":"x"}`},
		{"delete without id", `{"type":"DELETE"}`},
		{"unknown type", `{"type":"TRUNCATE","order_id":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeOrderChange([]byte(tt.payload)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestHandleMessageForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	h := &consumerGroupHandler{sink: sink, logger: quietLogger()}

	if err := h.handleMessage(&sarama.ConsumerMessage{Value: []byte(`{"type":"DELETE","order_id":"o-5"}`)}); err != nil {
		t.Fatal(err)
	}
	if err := h.handleMessage(&sarama.ConsumerMessage{Value: []byte(`garbage`)}); err == nil {
		t.Error("Expected decode error")
	}
	if len(sink.changes) != 1 || sink.changes[0].OrderID != "o-5" {
		t.Errorf("Unexpected sink contents %+v", sink.changes)
	}
}
