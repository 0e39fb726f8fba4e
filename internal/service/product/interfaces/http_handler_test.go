package interfaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/service/product/application"
	"nexusmall/internal/service/product/domain"
)

// captureRepo 记录最后一次查询条件
type captureRepo struct {
	filter domain.Filter
}

func (c *captureRepo) Create(_ context.Context, p *domain.Product) error {
	p.ID = "p1"
	return nil
}
func (c *captureRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	return nil, apperr.NotFound("product %s not found", id)
}
func (c *captureRepo) Find(_ context.Context, f domain.Filter) ([]*domain.Product, int64, error) {
	c.filter = f
	return []*domain.Product{}, 0, nil
}
func (c *captureRepo) Update(context.Context, *domain.Product) error { return nil }
func (c *captureRepo) Delete(context.Context, string) error          { return nil }

func newRouter() (*mux.Router, *captureRepo) {
	repo := &captureRepo{}
	r := mux.NewRouter()
	NewProductHandler(application.NewProductApplicationService(repo, noop.NewTracerProvider().Tracer("test"))).RegisterRoutes(r)
	return r, repo
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestListPassesFilters(t *testing.T) {
	r, repo := newRouter()

	rec := do(r, http.MethodGet, "/api/products?category=tea&q=oolong&page=2&size=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Filter{Category: "tea", Query: "oolong", Page: 2, Size: 5}, repo.filter)

	rec = do(r, http.MethodGet, "/api/products/category/coffee", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coffee", repo.filter.Category)
	assert.Equal(t, 1, repo.filter.Page)
}

func TestCreateAndMissing(t *testing.T) {
	r, _ := newRouter()

	rec := do(r, http.MethodPost, "/api/products", `{"name":"Oolong","price":45000,"stock":3}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(r, http.MethodPost, "/api/products", `{"name":"","price":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/products/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodDelete, "/api/products/p1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
