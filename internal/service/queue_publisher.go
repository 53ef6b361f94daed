// Package queue_publisher provides functions to publish domain events to
// RabbitMQ. Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/study-room-reservation/internal/queue"
)

// PublishReservationConfirmed publishes a ReservationConfirmedEvent to the
// reservation.confirmed queue. Messages are marked persistent so they
// survive broker restarts.
func PublishReservationConfirmed(ctx context.Context, event q.ReservationConfirmedEvent) error {
	return publish(ctx, q.ConfirmedQueueName, event)
}

// PublishReservationCancelled publishes a ReservationCancelledEvent to the
// reservation.cancelled queue.
func PublishReservationCancelled(ctx context.Context, event q.ReservationCancelledEvent) error {
	return publish(ctx, q.CancelledQueueName, event)
}

// publish opens a short-lived connection per event. Volume is low enough
// that connection reuse is not worth the lifecycle bookkeeping; any error
// is logged and returned for the caller to discard.
func publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
