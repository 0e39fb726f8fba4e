package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/service/cart/domain"
	"nexusmall/internal/service/cart/domain/port"
)

type memoryCartRepo struct {
	mu       sync.Mutex
	carts    map[string]domain.Cart
	conflict int // 接下来多少次 Save 返回 Conflict
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{carts: map[string]domain.Cart{}}
}

func (r *memoryCartRepo) FindByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, apperr.NotFound("cart of user %s not found", userID)
	}
	c.Items = append([]domain.CartItem(nil), c.Items...)
	return &c, nil
}

func (r *memoryCartRepo) Save(_ context.Context, c *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflict > 0 {
		r.conflict--
		return apperr.Conflict("cart of user %s was modified concurrently", c.UserID)
	}
	if c.IsNew() {
		c.ID = "cart-" + c.UserID
	} else {
		c.Version++
	}
	stored := *c
	stored.Items = append([]domain.CartItem(nil), c.Items...)
	r.carts[c.UserID] = stored
	return nil
}

type mockCatalog struct {
	GetProductFunc func(ctx context.Context, id string) (*port.ProductSnapshot, error)
	calls          int
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*port.ProductSnapshot, error) {
	m.calls++
	return m.GetProductFunc(ctx, id)
}

func teaCatalog() *mockCatalog {
	return &mockCatalog{GetProductFunc: func(_ context.Context, id string) (*port.ProductSnapshot, error) {
		return &port.ProductSnapshot{ID: id, Name: "Oolong", Image: "tea.png", Price: 45000, IsActive: true}, nil
	}}
}

func newService(repo domain.CartRepository, catalog port.ProductCatalog) *CartApplicationService {
	return NewCartApplicationService(repo, catalog, noop.NewTracerProvider().Tracer("test"))
}

func qty(n int) *int { return &n }

func TestAddNewProductFetchesOnce(t *testing.T) {
	repo := newMemoryCartRepo()
	catalog := teaCatalog()
	svc := newService(repo, catalog)

	resp, err := svc.AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p1", Quantity: qty(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Oolong", resp.Items[0].Name)
	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, 90000.0, resp.TotalPrice)
}

func TestAddExistingProductIncrementsWithoutFetch(t *testing.T) {
	repo := newMemoryCartRepo()
	catalog := teaCatalog()
	svc := newService(repo, catalog)

	_, err := svc.AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p1"})
	require.NoError(t, err)
	resp, err := svc.AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p1", Quantity: qty(3)})
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.calls)
	require.Len(t, resp.Items, 1, "no duplicate line")
	assert.Equal(t, 4, resp.Items[0].Quantity)
}

func TestAddRetriesConflictWithoutRefetching(t *testing.T) {
	repo := newMemoryCartRepo()
	repo.conflict = 2
	catalog := teaCatalog()

	resp, err := newService(repo, catalog).AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)
	assert.Equal(t, 1, resp.TotalItems)
}

func TestAddItemFailures(t *testing.T) {
	svc := newService(newMemoryCartRepo(), teaCatalog())
	_, err := svc.AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p1", Quantity: qty(0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.AddItem(context.Background(), "u1", &AddItemRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missing := &mockCatalog{GetProductFunc: func(_ context.Context, id string) (*port.ProductSnapshot, error) {
		return nil, apperr.NotFound("product %s not found", id)
	}}
	repo := newMemoryCartRepo()
	_, err = newService(repo, missing).AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p9"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	down := &mockCatalog{GetProductFunc: func(context.Context, string) (*port.ProductSnapshot, error) {
		return nil, apperr.Upstream(nil, "call product-service")
	}}
	_, err = newService(repo, down).AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p9"})
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	_, err = repo.FindByUserID(context.Background(), "u1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "aborted add must not create a cart")
}

func TestUpdateZeroRemovesLine(t *testing.T) {
	repo := newMemoryCartRepo()
	svc := newService(repo, teaCatalog())
	_, err := svc.AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p1"})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "u1", &AddItemRequest{ProductID: "p2"})
	require.NoError(t, err)

	resp, err := svc.UpdateItem(context.Background(), "u1", "p1", 0)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "p2", resp.Items[0].ProductID)

	_, err = svc.UpdateItem(context.Background(), "u1", "p404", 2)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	resp, err = svc.Clear(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0.0, resp.TotalPrice)
}

func TestGetMissingCartIsEmpty(t *testing.T) {
	resp, err := newService(newMemoryCartRepo(), teaCatalog()).GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", resp.UserID)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, 0, resp.TotalItems)
}
