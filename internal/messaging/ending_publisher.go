package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultEndingEventsQueue is used when no queue name is configured.
const DefaultEndingEventsQueue = "story_ending_events"

const (
	publishAttempts = 3
	publishTimeout  = 10 * time.Second
	appID           = "storyquest-server"
)

// amqpChannel - подмножество *amqp.Channel, нужное паблишеру.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Compile-time check
var _ interfaces.EndingEventPublisher = (*rabbitEndingPublisher)(nil)

// rabbitEndingPublisher publishes EndingDiscoveredEvent as persistent JSON
// messages to a durable queue via the default exchange. The channel is shared
// between requests and guarded by mu.
type rabbitEndingPublisher struct {
	mu           sync.Mutex
	channel      amqpChannel
	queueName    string
	retryBackoff time.Duration
	logger       *zap.Logger
}

// NewEndingPublisher opens a channel on conn and declares the queue.
func NewEndingPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*rabbitEndingPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("ending publisher: failed to open channel: %w", err)
	}
	publisher, err := newEndingPublisher(ch, queueName, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return publisher, nil
}

func newEndingPublisher(ch amqpChannel, queueName string, logger *zap.Logger) (*rabbitEndingPublisher, error) {
	if queueName == "" {
		queueName = DefaultEndingEventsQueue
	}
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return nil, fmt.Errorf("ending publisher: failed to declare queue '%s': %w", queueName, err)
	}
	logger.Info("Ending events queue declared", zap.String("queue", queueName))
	return &rabbitEndingPublisher{
		channel:      ch,
		queueName:    queueName,
		retryBackoff: 100 * time.Millisecond,
		logger:       logger.Named("EndingPublisher"),
	}, nil
}

func (p *rabbitEndingPublisher) PublishEndingDiscovered(ctx context.Context, event models.EndingDiscoveredEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ending event: %w", err)
	}
	return p.publish(ctx, body, zap.String("playerID", event.PlayerID), zap.String("storyID", event.StoryID))
}

func (p *rabbitEndingPublisher) publish(ctx context.Context, body []byte, fields ...zap.Field) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return errors.New("rabbitmq channel is closed")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	log := p.logger.With(append(fields, zap.String("queue", p.queueName))...)
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
			},
		)
		if err == nil {
			log.Debug("Ending event published", zap.Int("attempt", attempt))
			return nil
		}
		log.Warn("Failed to publish ending event", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < publishAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("publish to %s cancelled: %w", p.queueName, ctx.Err())
			case <-time.After(time.Duration(attempt) * p.retryBackoff):
			}
		}
	}
	return fmt.Errorf("failed to publish to queue %s after %d attempts: %w", p.queueName, publishAttempts, err)
}

// Close closes the channel. The connection is owned by the caller.
func (p *rabbitEndingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

// loggingEndingPublisher is used when no broker is configured.
type loggingEndingPublisher struct {
	logger *zap.Logger
}

// NewLoggingEndingPublisher returns a publisher that only logs events.
func NewLoggingEndingPublisher(logger *zap.Logger) interfaces.EndingEventPublisher {
	return &loggingEndingPublisher{logger: logger.Named("EndingPublisher")}
}

func (p *loggingEndingPublisher) PublishEndingDiscovered(_ context.Context, event models.EndingDiscoveredEvent) error {
	p.logger.Info("Ending discovered (broker disabled)",
		zap.String("playerID", event.PlayerID),
		zap.String("storyID", event.StoryID),
		zap.String("endingNodeID", event.EndingNodeID),
		zap.Int("discoveredCount", event.DiscoveredCount),
	)
	return nil
}
