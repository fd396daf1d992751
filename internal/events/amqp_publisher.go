package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishQueueSize   = 256
	brokerDialTimeout  = 2 * time.Second
	brokerRetryBackoff = 5 * time.Second
	publishTimeout     = 5 * time.Second
)

// AMQPPublisher forwards dispatched events to a RabbitMQ topic exchange.
// The routing key is the event type.
//
// Handle only enqueues; a single goroutine owns the broker connection and
// drains the queue, so request handlers never wait on the network. When the
// queue is full events are dropped and logged.
type AMQPPublisher struct {
	url         string
	exchange    string
	logger      *zap.Logger
	dialTimeout time.Duration
	backoff     time.Duration

	queue     chan Event
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// owned by the run goroutine
	conn      *amqp.Connection
	channel   *amqp.Channel
	nextRetry time.Time
}

// NewAMQPPublisher creates a publisher and starts its delivery loop. The
// connection is opened lazily on the first event and reopened after a failure.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) *AMQPPublisher {
	p := newAMQPPublisher(url, exchange, logger, publishQueueSize)
	go p.run()
	return p
}

func newAMQPPublisher(url, exchange string, logger *zap.Logger, queueSize int) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{
		url:         url,
		exchange:    exchange,
		logger:      logger,
		dialTimeout: brokerDialTimeout,
		backoff:     brokerRetryBackoff,
		queue:       make(chan Event, queueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Register subscribes the publisher to every event type.
func (p *AMQPPublisher) Register(dispatcher Dispatcher) {
	for _, eventType := range AllEventTypes {
		dispatcher.Subscribe(eventType, p.Handle)
	}
}

// Handle queues one event for delivery. It never blocks and never fails.
func (p *AMQPPublisher) Handle(_ context.Context, event Event) error {
	select {
	case <-p.stop:
		return nil
	default:
	}
	select {
	case p.queue <- event:
	default:
		p.logger.Warn("amqp: publish queue full, event dropped",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Close stops the delivery loop after flushing queued events and releases
// the broker connection.
func (p *AMQPPublisher) Close() {
	p.closeOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	defer p.reset()
	for {
		select {
		case event := <-p.queue:
			p.publish(event)
		case <-p.stop:
			for {
				select {
				case event := <-p.queue:
					p.publish(event)
				default:
					return
				}
			}
		}
	}
}

func (p *AMQPPublisher) publish(event Event) {
	msg, err := buildPublishing(event)
	if err != nil {
		p.logger.Error("amqp: marshal event failed", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	ch, err := p.ensureChannel()
	if err != nil {
		p.logger.Warn("amqp: broker unavailable, event dropped",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg); err != nil {
		p.logger.Warn("amqp: publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		p.reset()
		return
	}
	p.logger.Debug("amqp: event published",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID))
}

func (p *AMQPPublisher) ensureChannel() (*amqp.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}
	p.reset()
	if now := time.Now(); now.Before(p.nextRetry) {
		return nil, fmt.Errorf("reconnect backoff until %s", p.nextRetry.Format(time.RFC3339))
	}

	ch, err := p.connect()
	if err != nil {
		p.nextRetry = time.Now().Add(p.backoff)
		return nil, err
	}
	p.nextRetry = time.Time{}
	return ch, nil
}

func (p *AMQPPublisher) connect() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	p.conn = conn
	p.channel = ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func buildPublishing(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    ts,
		Body:         body,
	}, nil
}
