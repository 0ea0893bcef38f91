package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/validation"
	"github.com/temcen/stayrank/pkg/models"
)

const defaultMaxRetries = 3

// InteractionHandler applies one decoded interaction event.
type InteractionHandler func(ctx context.Context, event *models.InteractionEvent) error

// EventValidator checks a raw event payload before it is decoded.
type EventValidator interface {
	ValidateInteractionEvent(data interface{}) *validation.ValidationResult
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// permanentError marks a handler failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer sends the message to the DLQ without
// retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// InteractionBus carries interaction events between services. Events are
// keyed by user so one user's events stay ordered within a partition.
type InteractionBus struct {
	producer   messageWriter
	consumer   messageReader
	dlqWriter  messageWriter
	validator  EventValidator
	topic      string
	dlqTopic   string
	maxRetries int
	baseDelay  time.Duration
	logger     *logrus.Logger
}

func NewInteractionBus(cfg *config.Config, validator EventValidator, logger *logrus.Logger) *InteractionBus {
	topic := cfg.Kafka.Topics.UserInteractions
	dlqTopic := cfg.Kafka.Topics.UserInteractionsDLQ

	producer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        dlqTopic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &InteractionBus{
		producer:   producer,
		consumer:   consumer,
		dlqWriter:  dlqWriter,
		validator:  validator,
		topic:      topic,
		dlqTopic:   dlqTopic,
		maxRetries: defaultMaxRetries,
		baseDelay:  time.Second,
		logger:     logger,
	}
}

// PublishInteraction writes the event to the interactions topic and returns
// the generated event id.
func (b *InteractionBus) PublishInteraction(ctx context.Context, event *models.InteractionEvent) (uuid.UUID, error) {
	eventID := uuid.New()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal interaction event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID.String())},
			{Key: "interaction_type", Value: []byte(event.Type)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := b.producer.WriteMessages(writeCtx, message); err != nil {
		b.logger.WithError(err).WithField("event_id", eventID).Error("Failed to publish interaction to Kafka")
		return uuid.Nil, fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  event.UserID,
		"type":     event.Type,
		"topic":    b.topic,
	}).Debug("Interaction published to Kafka")

	return eventID, nil
}

// ConsumeInteractions reads events until ctx is done. Each event is schema
// checked, decoded and handed to handler with exponential-backoff retries;
// events that are invalid or keep failing go to the dead-letter topic.
func (b *InteractionBus) ConsumeInteractions(ctx context.Context, handler InteractionHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		message, err := b.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.WithError(err).Error("Failed to read message from Kafka")
			continue
		}

		if err := b.handleMessage(ctx, message, handler); err != nil {
			if dlqErr := b.sendToDLQ(ctx, message, err); dlqErr != nil {
				b.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
			}
		}
	}
}

func (b *InteractionBus) handleMessage(ctx context.Context, message kafka.Message, handler InteractionHandler) error {
	if b.validator != nil {
		if err := b.validator.ValidateInteractionEvent(message.Value).Err(); err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
	}

	var event models.InteractionEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal interaction event: %w", err)
	}

	return b.processWithRetry(ctx, headerValue(message, "event_id"), &event, handler)
}

func (b *InteractionBus) processWithRetry(ctx context.Context, eventID string, event *models.InteractionEvent, handler InteractionHandler) error {
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			delay := b.baseDelay * time.Duration(1<<uint(attempt-1))
			b.logger.WithFields(logrus.Fields{
				"event_id": eventID,
				"attempt":  attempt,
				"delay":    delay,
			}).Info("Retrying interaction processing")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := handler(ctx, event)
		if err == nil {
			b.logger.WithFields(logrus.Fields{
				"event_id": eventID,
				"attempt":  attempt,
			}).Debug("Interaction processed")
			return nil
		}

		b.logger.WithError(err).WithFields(logrus.Fields{
			"event_id": eventID,
			"attempt":  attempt,
		}).Warn("Interaction processing failed")

		if isPermanent(err) {
			return err
		}
		if attempt == b.maxRetries {
			return fmt.Errorf("max retries exceeded: %w", err)
		}
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (b *InteractionBus) sendToDLQ(ctx context.Context, message kafka.Message, cause error) error {
	dlqMessage := map[string]interface{}{
		"original_message": json.RawMessage(message.Value),
		"error":            cause.Error(),
		"dlq_timestamp":    time.Now(),
	}
	if !json.Valid(message.Value) {
		dlqMessage["original_message"] = string(message.Value)
	}

	dlqBytes, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	eventID := headerValue(message, "event_id")
	dlq := kafka.Message{
		Key:   message.Key,
		Value: dlqBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "original_topic", Value: []byte(b.topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	}

	if err := b.dlqWriter.WriteMessages(ctx, dlq); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"topic":    b.dlqTopic,
		"error":    cause.Error(),
	}).Warn("Interaction sent to DLQ")
	return nil
}

func headerValue(message kafka.Message, key string) string {
	for _, h := range message.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (b *InteractionBus) Close() error {
	var errs []error

	if err := b.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}
	if err := b.consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
	}
	if err := b.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	return errors.Join(errs...)
}

// Stats returns consumer statistics for monitoring
func (b *InteractionBus) Stats() map[string]interface{} {
	reader, ok := b.consumer.(*kafka.Reader)
	if !ok {
		return nil
	}
	stats := reader.Stats()
	return map[string]interface{}{
		"consumer_lag":    stats.Lag,
		"consumer_offset": stats.Offset,
		"messages_read":   stats.Messages,
		"rebalances":      stats.Rebalances,
		"errors":          stats.Errors,
	}
}
