package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"

	"github.com/IBM/sarama"
)

const consumeRetryDelay = 2 * time.Second

// ErrMalformedEvent возвращается для сообщения, которое не декодируется в событие
var ErrMalformedEvent = errors.New("malformed event")

// EventHandler представляет обработчик событий
type EventHandler func(ctx context.Context, event *models.Event) error

// Consumer представляет Kafka consumer
type Consumer struct {
	consumer sarama.ConsumerGroup
	log      *logger.Logger
	handlers map[models.EventType]EventHandler
	topics   []string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewConsumer создает новый Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, log *logger.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Session.Timeout = 10 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 3 * time.Second

	consumer, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	log.Info("Kafka consumer created successfully")

	return newConsumer(consumer, []string{cfg.Topics.Shipments, cfg.Topics.Tracking}, log), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, log *logger.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		consumer: group,
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
		topics:   topics,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler регистрирует обработчик для определенного типа события
func (c *Consumer) RegisterHandler(eventType models.EventType, handler EventHandler) {
	c.handlers[eventType] = handler
	c.log.WithField("event_type", eventType).Info("Event handler registered")
}

// Start запускает чтение топиков в фоне. После ошибки Consume повторяет попытку через consumeRetryDelay.
func (c *Consumer) Start() error {
	if c.consumer == nil {
		return errors.New("kafka consumer group is not configured")
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			err := c.consumer.Consume(c.ctx, c.topics, c)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || c.ctx.Err() != nil {
				return
			}
			if err != nil {
				c.log.WithError(err).Error("Error consuming messages")
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(consumeRetryDelay):
				}
			}
		}
	}()

	c.log.WithFields(map[string]interface{}{
		"topics": c.topics,
	}).Info("Kafka consumer started")
	return nil
}

// Stop останавливает consumer
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	if c.consumer == nil {
		return nil
	}
	return c.consumer.Close()
}

// Setup реализует интерфейс sarama.ConsumerGroupHandler
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup реализует интерфейс sarama.ConsumerGroupHandler
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim реализует интерфейс sarama.ConsumerGroupHandler.
// Нечитаемые сообщения подтверждаются и пропускаются, сообщения с ошибкой обработчика остаются неподтвержденными.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}

			err := c.processMessage(session.Context(), message)
			if err != nil {
				c.log.WithError(err).WithFields(map[string]interface{}{
					"topic":     message.Topic,
					"partition": message.Partition,
					"offset":    message.Offset,
					"key":       string(message.Key),
				}).Error("Failed to process message")
			}
			if err == nil || errors.Is(err, ErrMalformedEvent) {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessage декодирует событие и передает его зарегистрированному обработчику
func (c *Consumer) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	entry := c.log.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"event_id":   event.ID,
		"topic":      message.Topic,
	})

	handler, exists := c.handlers[event.Type]
	if !exists {
		entry.Debug("No handler registered for event type")
		return nil
	}

	if err := handler(ctx, &event); err != nil {
		return fmt.Errorf("handler failed for event type %s: %w", event.Type, err)
	}

	entry.Debug("Event processed successfully")
	return nil
}
