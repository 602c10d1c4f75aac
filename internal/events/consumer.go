package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotifyQueue is the durable queue the notification worker reads.
const NotifyQueue = "cafe.notifications"

// Notifier delivers a human readable message about an event.
type Notifier interface {
	Notify(subject, message string) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(subject, message string) error {
	slog.Info("notification", "subject", subject, "message", message)
	return nil
}

// Consume binds the notification queue to reservation and group events and
// hands each delivery to n until ctx is cancelled. The connection is
// re-dialled with backoff when the broker goes away.
func Consume(ctx context.Context, url, exchange string, n Notifier) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("notify: dial broker failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, exchange, n)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("notify: consume loop ended, reconnecting", "error", err)
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, exchange string, n Notifier) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("notify: set QoS failed", "error", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(NotifyQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range []string{"reservation.*", "group.*"} {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := Handle(d.Body, n); err != nil {
			slog.Error("notify: handle message failed", "error", err)
			_ = d.Nack(false, false) // do not requeue poison messages
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one envelope and forwards a summary to n.
func Handle(body []byte, n Notifier) error {
	var env struct {
		ID   string          `json:"id"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	subject, message, err := describe(env.Type, env.Data)
	if err != nil {
		return err
	}
	return n.Notify(subject, message)
}

func describe(kind string, data json.RawMessage) (string, string, error) {
	switch kind {
	case ReservationCreated, ReservationUpdated, ReservationCancelled, ReservationExpired:
		var ev ReservationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return "", "", fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		msg := fmt.Sprintf("reservation_id=%d user_id=%d cafe_id=%d table_id=%d window=%s",
			ev.ReservationID, ev.UserID, ev.CafeID, ev.TableID, timeRange(ev.StartTime, ev.EndTime))
		if ev.GameID != nil {
			msg += fmt.Sprintf(" game_id=%d", *ev.GameID)
		}
		return kind, msg, nil
	case GroupJoined, GroupLeft:
		var ev GroupEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return "", "", fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		return kind, fmt.Sprintf("group_id=%d reservation_id=%d user_id=%d open_seats=%d",
			ev.GroupID, ev.ReservationID, ev.UserID, ev.OpenSeats), nil
	}
	return "", "", fmt.Errorf("unknown event type %q", kind)
}

func timeRange(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.UTC().Format("2006-01-02 15:04"), end.UTC().Format("15:04"))
}
