package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/repository"
)

// StartBookingConsumer connects to RabbitMQ, declares the durable
// booking.events queue and turns each event into a notification row.
// It runs a reconnect loop with capped backoff and returns only when
// ctx is cancelled, so a broker outage never takes the server down.
func StartBookingConsumer(ctx context.Context, notifications *repository.NotificationRepo, log *zap.Logger) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := amqp.Dial(BrokerURL())
		if err != nil {
			log.Warn("booking consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(ctx, conn, notifications, log); err != nil {
			log.Warn("booking consumer loop ended", zap.Error(err))
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, notifications *repository.NotificationRepo, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, notifications); err != nil {
				log.Error("handle booking event failed", zap.Error(err))
				// reject without requeue to avoid tight redelivery loops
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, notifications *repository.NotificationRepo) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	n := notificationFor(ev)
	if n == nil {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := notifications.Create(opCtx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// notificationFor maps a booking event onto the notification shown to
// the user.  Unknown events are dropped silently so old messages never
// poison the queue after a deploy.
func notificationFor(ev BookingEvent) *model.Notification {
	base := model.Notification{
		UserID:    ev.UserID,
		BookingID: &ev.BookingID,
		ActionURL: fmt.Sprintf("/bookings/%d", ev.BookingID),
		Data: map[string]any{
			"bookingReference": ev.Reference,
			"bookingType":      ev.Type,
			"totalPrice":       ev.TotalPrice,
			"currency":         ev.Currency,
		},
	}
	switch ev.Event {
	case EventBookingCreated:
		base.Type = model.NotifBookingConfirmation
		base.Title = "Booking Received"
		base.Message = fmt.Sprintf("Your %s booking %s has been received and is awaiting payment.", ev.Type, ev.Reference)
		base.Priority = model.PriorityMedium
	case EventBookingCancelled:
		base.Type = model.NotifBookingCancelled
		base.Title = "Booking Cancelled"
		base.Message = fmt.Sprintf("Your booking %s has been cancelled.", ev.Reference)
		if ev.Reason != "" {
			base.Message = fmt.Sprintf("Your booking %s has been cancelled: %s", ev.Reference, ev.Reason)
		}
		base.Priority = model.PriorityHigh
	case EventPaymentCompleted:
		base.Type = model.NotifPaymentSuccess
		base.Title = "Payment Successful"
		base.Message = fmt.Sprintf("Payment of %.2f %s for booking %s was successful. Your booking is confirmed!", ev.TotalPrice, ev.Currency, ev.Reference)
		base.Priority = model.PriorityHigh
	case EventPaymentFailed:
		base.Type = model.NotifPaymentFailed
		base.Title = "Payment Failed"
		base.Message = fmt.Sprintf("Payment for booking %s failed. Please try again.", ev.Reference)
		base.Priority = model.PriorityUrgent
	default:
		return nil
	}
	return &base
}
