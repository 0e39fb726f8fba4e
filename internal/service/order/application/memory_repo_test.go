package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/service/order/domain"
)

// memoryOrderRepo 带版本检查的内存仓储
type memoryOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	seq      int
	taken    map[string]bool // 模拟其他实例已占用的订单号
	conflict int             // 接下来多少次 Update 返回 Conflict
	updates  int
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: map[string]domain.Order{}, taken: map[string]bool{}}
}

func clone(o domain.Order) *domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o
}

func (r *memoryOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken[o.OrderNumber] {
		return apperr.Conflict("order %s already exists", o.OrderNumber)
	}
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return apperr.Conflict("order %s already exists", o.OrderNumber)
		}
	}
	r.seq++
	o.ID = fmt.Sprintf("id-%d", r.seq)
	o.Version = 0
	r.orders[o.ID] = *clone(*o)
	return nil
}

func (r *memoryOrderRepo) FindByNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return clone(o), nil
		}
	}
	return nil, apperr.NotFound("order %s not found", number)
}

func (r *memoryOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order %s not found", id)
	}
	return clone(o), nil
}

func (r *memoryOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *memoryOrderRepo) List(_ context.Context, f domain.Filter) ([]*domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return f.OrderStatus == "" || o.OrderStatus == f.OrderStatus }), nil
}

func (r *memoryOrderRepo) filter(keep func(domain.Order) bool) []*domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryOrderRepo) Update(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.conflict > 0 {
		r.conflict--
		return apperr.Conflict("order %s was modified concurrently", o.OrderNumber)
	}
	stored, ok := r.orders[o.ID]
	if !ok {
		return apperr.NotFound("order %s not found", o.ID)
	}
	if stored.Version != o.Version {
		return apperr.Conflict("order %s was modified concurrently", o.OrderNumber)
	}
	o.Version++
	r.orders[o.ID] = *clone(*o)
	return nil
}

func (r *memoryOrderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return apperr.NotFound("order %s not found", id)
	}
	delete(r.orders, id)
	return nil
}
