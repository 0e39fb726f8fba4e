package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
)

func newClient(endpoints ...string) *Client {
	return NewClient(noop.NewTracerProvider().Tracer("test"),
		StaticResolver{"product-service": endpoints}, time.Second, 2*time.Second)
}

func TestFailoverOn5xx(t *testing.T) {
	var firstHits atomic.Int32
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstHits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/p1", r.URL.Path)
		assert.Equal(t, "yes", r.URL.Query().Get("active"))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "p1", "price": 12.5})
	}))
	defer healthy.Close()

	var out struct {
		ID    string  `json:"id"`
		Price float64 `json:"price"`
	}
	err := newClient(broken.URL, healthy.URL).Do(context.Background(), Request{
		Service: "product-service",
		Method:  http.MethodGet,
		Path:    "/api/products/p1",
		Query:   url.Values{"active": {"yes"}},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, int32(1), firstHits.Load())
	assert.Equal(t, "p1", out.ID)
	assert.Equal(t, 12.5, out.Price)
}

func TestFailoverOnTransportError(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["title"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer healthy.Close()

	err := newClient(deadURL, healthy.URL).Do(context.Background(), Request{
		Service: "product-service",
		Method:  http.MethodPost,
		Path:    "/api/notifications",
		Body:    map[string]string{"title": "hello"},
	}, nil)
	require.NoError(t, err)
}

func TestClientErrorStopsFailover(t *testing.T) {
	var secondHits atomic.Int32
	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"product p9 not found"}`))
	}))
	defer missing.Close()
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondHits.Add(1)
	}))
	defer other.Close()

	err := newClient(missing.URL, other.URL).Do(context.Background(), Request{
		Service: "product-service", Method: http.MethodGet, Path: "/api/products/p9",
	}, nil)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "product p9 not found")
	assert.Equal(t, int32(0), secondHits.Load())
}

func TestAllEndpointsDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	err := newClient(down.URL, down.URL).Do(context.Background(), Request{
		Service: "product-service", Method: http.MethodGet, Path: "/x",
	}, nil)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	err = newClient().Do(context.Background(), Request{Service: "product-service", Method: http.MethodGet, Path: "/x"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

type stubRegistry struct {
	url string
	err error
}

func (s stubRegistry) Discover(string) (string, error) { return s.url, s.err }

func TestRegistryResolverPrefersDiscovered(t *testing.T) {
	static := StaticResolver{"order-service": {"http://a:1", "http://b:2"}}

	r := RegistryResolver{Registry: stubRegistry{url: "http://b:2"}, Fallback: static}
	assert.Equal(t, []string{"http://b:2", "http://a:1"}, r.Endpoints("order-service"))

	r = RegistryResolver{Registry: stubRegistry{err: errors.New("nacos down")}, Fallback: static}
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, r.Endpoints("order-service"))
}
