package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
)

func TestRoleLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/a1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a1","role":"admin"}`))
	}))
	defer srv.Close()

	client := httpclient.NewClient(noop.NewTracerProvider().Tracer("test"),
		httpclient.StaticResolver{bootstrap.UserService: {srv.URL}}, time.Second, time.Second)
	a := NewUserHTTPAdapter(client)

	role, err := a.Role(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	_, err = a.Role(context.Background(), "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
