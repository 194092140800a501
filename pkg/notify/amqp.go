package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes notifications to a topic exchange with routing key
// "notification.<type>". A dropped connection is re-dialled on the next publish.
type AMQPNotifier struct {
	mu       sync.Mutex
	url      string
	exchange string
	dial     func(url string) (*amqp.Connection, error)

	conn   *amqp.Connection
	ch     *amqp.Channel
	closed chan *amqp.Error
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	p := newAMQPNotifier(url, exchange, amqp.Dial)
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func newAMQPNotifier(url, exchange string, dial func(string) (*amqp.Connection, error)) *AMQPNotifier {
	return &AMQPNotifier{url: url, exchange: exchange, dial: dial}
}

// connect must be called with mu held (or before the notifier is shared).
func (p *AMQPNotifier) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	p.conn = conn
	p.ch = ch
	p.closed = ch.NotifyClose(make(chan *amqp.Error, 1))
	return nil
}

// connected reports whether the channel is still usable, dropping it once
// the broker has signalled a close.
func (p *AMQPNotifier) connected() bool {
	if p.ch == nil {
		return false
	}
	select {
	case <-p.closed:
		p.drop()
		return false
	default:
		return true
	}
}

func (p *AMQPNotifier) drop() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch, p.closed = nil, nil, nil
}

func RoutingKey(n Notification) string {
	return "notification." + n.Type
}

func (p *AMQPNotifier) Notify(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.CreatedAt,
		Body:         b,
	})
	if err != nil && p.ch.IsClosed() {
		p.drop()
	}
	return err
}

func (p *AMQPNotifier) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.ch, p.closed = nil, nil, nil
	return err
}
