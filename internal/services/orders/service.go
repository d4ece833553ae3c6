package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ZenGummies/ShopBox/internal/apperr"
	"github.com/ZenGummies/ShopBox/internal/broker/messages"
	"github.com/ZenGummies/ShopBox/internal/cache"
	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/ZenGummies/ShopBox/internal/storage/pgshop"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	orderNumberPrefix      = "ZG"
	orderNumberMaxAttempts = 5
	listCacheKey           = "orders:list"
)

type Repository interface {
	CreateOrder(ctx context.Context, in models.OrderCreateInput, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrderByID(ctx context.Context, id uint64) (*models.Order, error)
	UpdateOrder(ctx context.Context, id uint64, patch models.OrderPatch) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uint64) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo     Repository
	cache    cache.BytesCache
	cacheTTL time.Duration
	producer Producer
	topic    string
}

func New(repo Repository, c cache.BytesCache, cacheTTL time.Duration, producer Producer, topic string) *Service {
	return &Service{repo: repo, cache: c, cacheTTL: cacheTTL, producer: producer, topic: topic}
}

// Create persists a PENDING order and enqueues the operator push
// notification. The notification is best-effort: an enqueue failure is
// logged and never fails the order.
func (s *Service) Create(ctx context.Context, in models.OrderCreateInput) (*models.Order, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.InvalidErr("name is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperr.InvalidErr("email is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, apperr.InvalidErr("phone is required")
	}
	if strings.TrimSpace(in.Bundle) == "" {
		return nil, apperr.InvalidErr("bundle is required")
	}

	var order *models.Order
	for attempt := 0; attempt < orderNumberMaxAttempts; attempt++ {
		number := newOrderNumber(attempt)
		o, err := s.repo.CreateOrder(ctx, in, number)
		if errors.Is(err, pgshop.ErrOrderNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		order = o
		break
	}
	if order == nil {
		return nil, errors.New("could not allocate a unique order number")
	}

	s.invalidateList(ctx)
	s.enqueueNewOrderPush(ctx, order)
	return order, nil
}

// newOrderNumber is time-based; millisecond resolution makes collisions
// rare, and retries append a short random suffix rather than trusting it.
func newOrderNumber(attempt int) string {
	n := newOrderNumberAt(time.Now().UnixMilli())
	if attempt > 0 {
		n += "-" + uuid.NewString()[:4]
	}
	return n
}

func newOrderNumberAt(millis int64) string {
	return fmt.Sprintf("%s%d", orderNumberPrefix, millis)
}

func (s *Service) List(ctx context.Context) ([]*models.Order, error) {
	// Best-effort read-through cache: absorbs dashboard polling without a
	// DB hit per tab. Cache failures fall back to the repo.
	if s.cache != nil && s.cacheTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, listCacheKey); err == nil && ok {
			var out []*models.Order
			if json.Unmarshal(b, &out) == nil {
				return out, nil
			}
		}
	}

	out, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if b, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, listCacheKey, b, s.cacheTTL)
		}
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uint64, patch models.OrderPatch) (*models.Order, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.InvalidErr(fmt.Sprintf("unknown status %q", *patch.Status))
	}

	o, err := s.repo.UpdateOrder(ctx, id, patch)
	if errors.Is(err, pgshop.ErrNotFound) {
		return nil, apperr.NotFoundErr("order not found")
	}
	if err != nil {
		return nil, err
	}
	s.invalidateList(ctx)
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	err := s.repo.DeleteOrder(ctx, id)
	if errors.Is(err, pgshop.ErrNotFound) {
		return apperr.NotFoundErr("order not found")
	}
	if err != nil {
		return err
	}
	s.invalidateList(ctx)
	return nil
}

func (s *Service) invalidateList(ctx context.Context) {
	if s.cache != nil && s.cacheTTL > 0 {
		_ = s.cache.Del(ctx, listCacheKey)
	}
}

func (s *Service) enqueueNewOrderPush(ctx context.Context, o *models.Order) {
	if s.producer == nil {
		return
	}
	env := messages.OutboundDispatch{
		Kind:       messages.OutboundKindPush,
		EnqueuedAt: time.Now().UTC(),
		Push: &messages.PushNotification{
			Title: fmt.Sprintf("New order %s", o.OrderNumber),
			Body:  fmt.Sprintf("%s — %s (%.0f AED)", o.Name, o.BundleName, o.Price),
			Tags:  []string{"package"},
		},
	}
	b, err := json.Marshal(env)
	if err != nil {
		slog.Error("marshal order push", "error", err.Error())
		return
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(o.OrderNumber), b); err != nil {
		slog.Error("enqueue order push", "order_number", o.OrderNumber, "error", err.Error())
	}
}

// EnqueueTestPush publishes a throwaway notification so the operator can
// verify the push pipeline end to end.
func (s *Service) EnqueueTestPush(ctx context.Context) error {
	if s.producer == nil {
		return errors.New("producer is not configured")
	}
	env := messages.OutboundDispatch{
		Kind:       messages.OutboundKindPush,
		EnqueuedAt: time.Now().UTC(),
		Push: &messages.PushNotification{
			Title: "Test notification",
			Body:  "ShopBox push pipeline is working",
			Tags:  []string{"white_check_mark"},
		},
	}
	b, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal test push")
	}
	return s.producer.Publish(ctx, s.topic, []byte("test"), b)
}
