package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/Brocoder07/ShopStream/internal/kafka"
	"github.com/Brocoder07/ShopStream/internal/orders"
	"github.com/Brocoder07/ShopStream/internal/redisx"
)

// StatusCache is the slice of redis the order-status cache needs.
// *redis.Client satisfies it.
type StatusCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type OrdersHandler struct {
	Svc            *orders.Service
	PlacedProducer *kafkax.Producer // order.placed
	StatusProducer *kafkax.Producer // order.status.changed
	Redis          StatusCache
	Auth           *AuthMiddleware
	Service        string
}

type PlaceOrderReq struct {
	Cart orders.Cart `json:"cart"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require)
		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.myOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/status", h.getOrderStatus)
		r.Post("/orders/{id}/pay", h.simulatePayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require, h.Auth.RequireAdmin)
		r.Get("/admin/orders", h.allOrders)
		r.Put("/admin/orders/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	claims := ClaimsFrom(r.Context())
	ord, err := h.Svc.PlaceOrder(ctx, claims.UserID, req.Cart)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, ord.ID, ord.UserID, ord.Status)
	h.publishPlaced(ord, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, ord)
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	list, err := h.Svc.OrdersForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	ord, err := h.Svc.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if ord.UserID != claims.UserID && claims.Role != "ADMIN" {
		// existence of other users' orders is not disclosed
		writeError(w, orders.ErrOrderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// getOrderStatus serves from the redis cache when it can; a miss falls
// back to the store and refills the cache.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	claims := ClaimsFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var entry orders.StatusEntry
			// a malformed or ownerless entry falls through to the store
			if err := json.Unmarshal([]byte(s), &entry); err == nil && entry.UserID != "" {
				if entry.UserID != claims.UserID && claims.Role != "ADMIN" {
					// existence of other users' orders is not disclosed
					writeError(w, orders.ErrOrderNotFound)
					return
				}
				writeJSON(w, http.StatusOK, map[string]orders.Status{"status": entry.Status})
				return
			}
		}
	}

	ord, err := h.Svc.Order(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if ord.UserID != claims.UserID && claims.Role != "ADMIN" {
		writeError(w, orders.ErrOrderNotFound)
		return
	}
	h.cacheStatus(ctx, ord.ID, ord.UserID, ord.Status)
	writeJSON(w, http.StatusOK, map[string]orders.Status{"status": ord.Status})
}

func (h *OrdersHandler) allOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.AllOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	orderID := chi.URLParam(r, "id")
	before, err := h.Svc.Order(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	ord, err := h.Svc.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(r.Context(), ord.ID, ord.UserID, ord.Status)
	h.publishStatusChanged(ord, before.Status, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, ord)
}

// simulatePayment only acknowledges; there is no payment provider
// behind it.
func (h *OrdersHandler) simulatePayment(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	ord, err := h.Svc.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if ord.UserID != claims.UserID {
		writeError(w, orders.ErrOrderNotFound)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"order_id": ord.ID,
		"amount":   ord.TotalAmount,
		"result":   "SIMULATED",
	})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID, userID string, status orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"user_id":%q,"status":%q}`, userID, status), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publishPlaced(ord orders.Order, traceID string) {
	if h.PlacedProducer == nil {
		return
	}
	items := make([]orders.ItemLine, 0, len(ord.Items))
	for _, it := range ord.Items {
		items = append(items, orders.ItemLine{ProductID: it.ProductID, Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: ord.ID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:     ord.ID,
			UserID:      ord.UserID,
			Items:       items,
			TotalAmount: ord.TotalAmount,
		}),
	}
	h.PlacedProducer.Publish(orders.PartitionKey(ord.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) publishStatusChanged(ord orders.Order, from orders.Status, traceID string) {
	if h.StatusProducer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: ord.ID,
		Payload: kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID: ord.ID,
			UserID:  ord.UserID,
			From:    from,
			To:      ord.Status,
		}),
	}
	h.StatusProducer.Publish(orders.PartitionKey(ord.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
