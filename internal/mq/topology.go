package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeSyncs  Exchange = "syncline.syncs"
	ExchangeEvents Exchange = "syncline.events"
	ExchangeDLQ    Exchange = "syncline.dlq"
)

// Queues — имена очередей.
const (
	QueueSyncsRequested Queue = "syncs.requested"
	QueueSyncEvents     Queue = "sync.events"
	QueueDLQSyncs       Queue = "dlq.syncs"
)

// Routing keys.
const (
	RoutingKeyRequested RoutingKey = "requested"
	RoutingKeyEvent     RoutingKey = "event"
	RoutingKeyDLQSyncs  RoutingKey = "syncs"
)

// SetupTopology объявляет exchanges, queues и bindings.
// Идемпотентно: повторное объявление с теми же параметрами безопасно.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeSyncs, "direct"},
		{ExchangeEvents, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}
	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSyncs),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// syncs.requested — on-demand запросы синхронизации, с DLQ
		{QueueSyncsRequested, dlqArgs},

		// sync.events — события жизненного цикла, без DLQ
		{QueueSyncEvents, nil},

		// dlq.syncs — сама DLQ очередь
		{QueueDLQSyncs, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueSyncsRequested, RoutingKeyRequested, ExchangeSyncs},
		{QueueSyncEvents, RoutingKeyEvent, ExchangeEvents},
		{QueueDLQSyncs, RoutingKeyDLQSyncs, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
