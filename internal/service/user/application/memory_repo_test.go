package application

import (
	"context"
	"sort"
	"sync"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/service/user/domain"
)

// memoryUserRepo 是带版本检查的内存仓储
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User

	// beforeUpdate 在版本检查前调用，用来模拟并发写入
	beforeUpdate func(u *domain.User)
	updates      int
}

func newMemoryUserRepo(users ...domain.User) *memoryUserRepo {
	r := &memoryUserRepo{users: map[string]domain.User{}}
	for _, u := range users {
		r.users[u.UserID] = u
	}
	return r
}

func (r *memoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UserID]; ok {
		return apperr.Conflict("user %s already exists", u.UserID)
	}
	u.ID = "id-" + u.UserID
	r.users[u.UserID] = clone(*u)
	return nil
}

func (r *memoryUserRepo) FindByUserID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	c := clone(u)
	return &c, nil
}

func (r *memoryUserRepo) List(context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		c := clone(u)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *memoryUserRepo) Update(_ context.Context, u *domain.User) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate(u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.UserID]
	if !ok {
		return apperr.NotFound("user %s not found", u.UserID)
	}
	if cur.Version != u.Version {
		return apperr.Conflict("user %s was modified concurrently", u.UserID)
	}
	u.Version++
	r.users[u.UserID] = clone(*u)
	r.updates++
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return apperr.NotFound("user %s not found", userID)
	}
	delete(r.users, userID)
	return nil
}

func (r *memoryUserRepo) ListNeedingReset(_ context.Context, month string) ([]*domain.User, error) {
	all, _ := r.List(context.Background())
	var out []*domain.User
	for _, u := range all {
		if u.LastResetMonth != month {
			out = append(out, u)
		}
	}
	return out, nil
}

// bump 模拟另一个请求抢先写入
func (r *memoryUserRepo) bump(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.Version++
	r.users[userID] = u
}

func clone(u domain.User) domain.User {
	u.CountedOrders = append([]string(nil), u.CountedOrders...)
	return u
}
