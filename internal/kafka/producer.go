package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer представляет Kafka producer событий отправлений
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   config.Topics
}

// NewProducer создает новый Kafka producer
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll       // Ждем подтверждения от всех реплик
	config.Producer.Retry.Max = 3                          // Максимум 3 попытки
	config.Producer.Return.Successes = true                // Возвращаем успешные результаты
	config.Producer.Compression = sarama.CompressionSnappy // Сжатие данных
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Kafka producer created successfully")

	return NewProducerWithClient(producer, cfg.Topics, log), nil
}

// NewProducerWithClient оборачивает готовый sarama.SyncProducer
func NewProducerWithClient(producer sarama.SyncProducer, topics config.Topics, log *logger.Logger) *Producer {
	return &Producer{
		producer: producer,
		log:      log,
		topics:   topics,
	}
}

// Close закрывает producer
func (p *Producer) Close() error {
	return p.producer.Close()
}

// PublishShipmentCreated публикует событие создания отправления
func (p *Producer) PublishShipmentCreated(ctx context.Context, s *models.Shipment) error {
	return p.publish(ctx, p.topics.Shipments, s.ID, models.EventTypeShipmentCreated, models.ShipmentCreatedEvent{
		ShipmentID:     s.ID,
		TrackingNumber: s.TrackingNumber,
		SenderEmail:    s.Sender.Email,
		RecipientEmail: s.Recipient.Email,
		Service:        s.Service,
		TotalCost:      s.TotalCost,
	})
}

// PublishStatusChanged публикует событие изменения статуса отправления
func (p *Producer) PublishStatusChanged(ctx context.Context, s *models.Shipment, oldStatus models.Status) error {
	data := models.ShipmentStatusChangedEvent{
		ShipmentID:     s.ID,
		TrackingNumber: s.TrackingNumber,
		OldStatus:      oldStatus,
		NewStatus:      s.Status,
		Timestamp:      s.UpdatedAt,
	}
	if n := len(s.TrackingHistory); n > 0 {
		data.Location = s.TrackingHistory[n-1].Location
	}
	if s.Courier != nil {
		data.CourierID = s.Courier.ID
	}

	return p.publish(ctx, p.topics.Tracking, s.ID, models.EventTypeShipmentStatusChanged, data)
}

// PublishCourierAssigned публикует событие назначения курьера
func (p *Producer) PublishCourierAssigned(ctx context.Context, s *models.Shipment) error {
	data := models.CourierAssignedEvent{
		ShipmentID: s.ID,
		Timestamp:  s.UpdatedAt,
	}
	if s.Courier != nil {
		data.CourierID = s.Courier.ID
	}

	return p.publish(ctx, p.topics.Tracking, s.ID, models.EventTypeCourierAssigned, data)
}

// PublishShipmentUpdated публикует событие изменения тарифа или инструкций
func (p *Producer) PublishShipmentUpdated(ctx context.Context, s *models.Shipment) error {
	return p.publish(ctx, p.topics.Shipments, s.ID, models.EventTypeShipmentUpdated, models.ShipmentUpdatedEvent{
		ShipmentID: s.ID,
		Service:    s.Service,
		TotalCost:  s.TotalCost,
		Timestamp:  s.UpdatedAt,
	})
}

// publish упаковывает данные в событие и отправляет его в топик.
// Ключ сообщения - ID отправления, чтобы события одного отправления попадали в одну партицию.
func (p *Producer) publish(ctx context.Context, topic, key string, eventType models.EventType, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	return p.publishEvent(topic, key, event)
}

// publishEvent публикует событие в указанный топик
func (p *Producer) publishEvent(topic, key string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(event.Type),
			},
			{
				Key:   []byte("timestamp"),
				Value: []byte(event.Timestamp.Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithField("topic", topic).
		WithField("partition", partition).
		WithField("offset", offset).
		WithField("event_type", event.Type).
		WithField("event_id", event.ID).
		Debug("Event published successfully")

	return nil
}
