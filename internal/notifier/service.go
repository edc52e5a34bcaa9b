// Package notifier consumes order events and keeps the status cache
// warm while emitting the customer-facing notifications. Delivery is
// just a log line; there is no mail provider wired in.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/Brocoder07/ShopStream/internal/kafka"
	"github.com/Brocoder07/ShopStream/internal/orders"
	"github.com/Brocoder07/ShopStream/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}
	if dup, err := s.seen(ctx, env.EventID); err != nil || dup {
		return err
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.cacheStatus(ctx, p.OrderID, p.UserID, orders.StatusPending)
	log.Printf("notify user=%s: order %s placed, total=%s (%d items)",
		p.UserID, p.OrderID, p.TotalAmount, len(p.Items))
	return nil
}

func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}
	if dup, err := s.seen(ctx, env.EventID); err != nil || dup {
		return err
	}

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.cacheStatus(ctx, p.OrderID, p.UserID, p.To)
	log.Printf("notify: order %s moved %s -> %s", p.OrderID, p.From, p.To)
	return nil
}

// seen marks the event as processed; redoing one is harmless but noisy.
func (s *Service) seen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
	exists, _ := redisx.Exists(ctx, s.Redis, key)
	if exists {
		return true, nil
	}
	_ = s.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
	return false, nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID, userID string, st orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"user_id":%q,"status":%q}`, userID, st), redisx.TTLStatusCache).Err()
}
