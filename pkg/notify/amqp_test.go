package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBrokerDown = errors.New("broker down")

func countingDial(calls *int) func(string) (*amqp.Connection, error) {
	return func(string) (*amqp.Connection, error) {
		*calls++
		return nil, errBrokerDown
	}
}

func TestAMQPNotifier_RedialsWhileDisconnected(t *testing.T) {
	var calls int
	p := newAMQPNotifier("amqp://broker", "auralumic.notifications", countingDial(&calls))
	n := Notification{UserID: uuid.New(), Type: TypeReadingRequested}

	err := p.Notify(context.Background(), n)
	require.ErrorIs(t, err, errBrokerDown)

	err = p.Notify(context.Background(), n)
	require.ErrorIs(t, err, errBrokerDown)
	assert.Equal(t, 2, calls)
}

func TestAMQPNotifier_DropsClosedChannel(t *testing.T) {
	var calls int
	p := newAMQPNotifier("amqp://broker", "auralumic.notifications", countingDial(&calls))

	closed := make(chan *amqp.Error, 1)
	closed <- amqp.ErrClosed
	p.ch = new(amqp.Channel)
	p.closed = closed

	err := p.Notify(context.Background(), Notification{UserID: uuid.New(), Type: TypeReadingStatus})
	require.ErrorIs(t, err, errBrokerDown)
	assert.Equal(t, 1, calls)
	assert.Nil(t, p.ch)
}

func TestAMQPNotifier_CloseWhileDisconnected(t *testing.T) {
	p := newAMQPNotifier("amqp://broker", "auralumic.notifications", amqp.Dial)
	assert.NoError(t, p.Close())
}
