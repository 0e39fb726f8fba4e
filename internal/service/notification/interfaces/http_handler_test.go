package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/wshub"
	"nexusmall/internal/service/notification/application"
	"nexusmall/internal/service/notification/domain"
	"nexusmall/internal/service/notification/infrastructure/adapter"
)

// stubRepo 只记录写入，不支持查询以外的复杂操作
type stubRepo struct {
	stored []*domain.Notification
}

func (s *stubRepo) Create(_ context.Context, n *domain.Notification) error {
	n.ID = "n1"
	s.stored = append(s.stored, n)
	return nil
}
func (s *stubRepo) FindByID(context.Context, string) (*domain.Notification, error) {
	return nil, apperr.NotFound("notification not found")
}
func (s *stubRepo) ListByUser(context.Context, string) ([]*domain.Notification, error) {
	return s.stored, nil
}
func (s *stubRepo) CountUnread(context.Context, string) (int64, error) {
	return int64(len(s.stored)), nil
}
func (s *stubRepo) MarkRead(context.Context, string, time.Time) (*domain.Notification, error) {
	return nil, apperr.NotFound("notification not found")
}
func (s *stubRepo) MarkAllRead(context.Context, string, time.Time) (int64, error) { return 0, nil }
func (s *stubRepo) Delete(context.Context, string) error                        { return nil }
func (s *stubRepo) DeleteByUser(context.Context, string) (int64, error)         { return 0, nil }

func newServer(t *testing.T) (*httptest.Server, *wshub.Hub, *stubRepo) {
	t.Helper()
	hub := wshub.NewHub(nil)
	repo := &stubRepo{}
	svc := application.NewNotificationApplicationService(repo, adapter.NewWebSocketPusher(hub), nil, noop.NewTracerProvider().Tracer("test"))
	r := mux.NewRouter()
	NewNotificationHandler(svc, hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, repo
}

func TestCreatePushesToConnectedUser(t *testing.T) {
	srv, hub, _ := newServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/notifications?userId=u1", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Online("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/notifications", "application/json",
		strings.NewReader(`{"userId":"u1","orderId":"M1","title":"Đơn hàng","message":"Đã giao","type":"ORDER_STATUS"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var n domain.Notification
	require.NoError(t, json.Unmarshal(frame, &n))
	assert.Equal(t, "M1", n.OrderID)
	assert.Equal(t, domain.StatusUnread, n.Status)
}

func TestRoutes(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/api/notifications", "application/json", strings.NewReader(`{"title":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/notifications/admin", "application/json",
		strings.NewReader(`{"userIds":["u1","u2"],"title":"Sale","message":"50%"}`))
	require.NoError(t, err)
	var count application.CountResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	resp.Body.Close()
	assert.Equal(t, int64(2), count.Count)

	resp, err = http.Get(srv.URL + "/api/notifications/user/u1/unread-count")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	resp.Body.Close()
	assert.Equal(t, int64(2), count.Count)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/notifications/bad/read", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws/notifications")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocketUsesGatewayIdentity(t *testing.T) {
	srv, hub, _ := newServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"
	header := http.Header{httpx.HeaderUserID: []string{"u1"}}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?userId=u2", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, hub.Online("u2"))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?userId=u1", header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Online("u1") == 1 }, 2*time.Second, 10*time.Millisecond)
}
