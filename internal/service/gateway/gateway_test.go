package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
)

// deadUpstream 上没有监听者，连接会被拒绝
const deadUpstream = "http://127.0.0.1:1"

const secret = "test-secret"

func echoBackend(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Backend", name)
		w.Header().Set("X-Seen-User", r.Header.Get(HeaderUserID))
		w.Header().Set("X-Seen-Role", r.Header.Get(HeaderUserRole))
		_, _ = w.Write([]byte(r.Method + " " + r.URL.Path + " " + string(body)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, endpoints map[string][]string, auth *Authenticator) *httptest.Server {
	t.Helper()
	proxy := NewProxy(noop.NewTracerProvider().Tracer("test"), httpclient.StaticResolver(endpoints), time.Second, 5*time.Second)
	cors := CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
	r := mux.NewRouter()
	New(proxy, cors, auth, DefaultRoutes).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestFailoverReplaysBody(t *testing.T) {
	backend := echoBackend(t, "b")
	gw := newGateway(t, map[string][]string{bootstrap.OrderService: {deadUpstream, backend.URL}}, nil)

	resp, err := http.Post(gw.URL+"/api/orders", "application/json", strings.NewReader(`{"userId":"u1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "b", resp.Header.Get("X-Backend"))
	assert.Equal(t, `POST /api/orders {"userId":"u1"}`, string(body))
}

func TestAllUpstreamsDownIs502(t *testing.T) {
	gw := newGateway(t, map[string][]string{bootstrap.CartService: {deadUpstream}}, nil)

	resp, err := http.Get(gw.URL + "/api/cart/u1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, err = http.Get(gw.URL + "/api/products")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode, "no endpoint configured")
}

func TestCORSPreflight(t *testing.T) {
	gw := newGateway(t, map[string][]string{bootstrap.ProductService: {deadUpstream}}, nil)

	req, _ := http.NewRequest(http.MethodOptions, gw.URL+"/api/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", resp.Header.Get("Access-Control-Allow-Methods"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func sign(t *testing.T, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthForwardsIdentity(t *testing.T) {
	backend := echoBackend(t, "b")
	auth := NewAuthenticator(secret, []string{"/api/products"})
	gw := newGateway(t, map[string][]string{
		bootstrap.OrderService:   {backend.URL},
		bootstrap.ProductService: {backend.URL},
	}, auth)

	// 公开前缀不需要令牌，伪造的身份头被去掉
	req, _ := http.NewRequest(http.MethodGet, gw.URL+"/api/products", nil)
	req.Header.Set(HeaderUserID, "spoofed")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Seen-User"))

	resp, err = http.Get(gw.URL + "/api/orders")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := sign(t, &Claims{UserID: "u1", Role: "admin", StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}}, jwt.SigningMethodHS256)
	req, _ = http.NewRequest(http.MethodGet, gw.URL+"/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", resp.Header.Get("X-Seen-User"))
	assert.Equal(t, "admin", resp.Header.Get("X-Seen-Role"))
}

func TestAuthRejectsBadTokens(t *testing.T) {
	auth := NewAuthenticator(secret, nil)

	expired := sign(t, &Claims{UserID: "u1", StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()}}, jwt.SigningMethodHS256)
	_, err := auth.Parse(expired)
	assert.Error(t, err)

	wrongAlg := sign(t, &Claims{UserID: "u1"}, jwt.SigningMethodHS512)
	_, err = auth.Parse(wrongAlg)
	assert.Error(t, err)

	noSubject := sign(t, &Claims{Role: "user"}, jwt.SigningMethodHS256)
	_, err = auth.Parse(noSubject)
	assert.Error(t, err)

	sub := sign(t, &Claims{StandardClaims: jwt.StandardClaims{Subject: "u9"}}, jwt.SigningMethodHS256)
	claims, err := auth.Parse(sub)
	require.NoError(t, err)
	assert.Equal(t, "u9", claims.subject())
}

func TestInternalEndpointsAreNotExposed(t *testing.T) {
	var hits atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()
	auth := NewAuthenticator(secret, nil)
	gw := newGateway(t, map[string][]string{
		bootstrap.OrderService: {backend.URL},
		bootstrap.UserService:  {backend.URL},
	}, auth)
	token := sign(t, &Claims{UserID: "attacker", Role: "user", StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}}, jwt.SigningMethodHS256)

	blocked := []struct{ method, path string }{
		{http.MethodPut, "/api/orders/payment/callback?orderId=M1&paymentStatus=paid&transactionId=forged"},
		{http.MethodPut, "/api/orders/payment/callback/"},
		{http.MethodPut, "/api/orders/M20240601020000/payment"},
		{http.MethodPost, "/api/users/membership/attacker/purchase"},
		{http.MethodPost, "/api/users/membership/reset"},
	}
	for _, c := range blocked {
		for _, withToken := range []bool{true, false} {
			req, _ := http.NewRequest(c.method, gw.URL+c.path, strings.NewReader(`{"orderAmount":1000000}`))
			if withToken {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", c.method, c.path)
		}
	}
	assert.Zero(t, hits.Load())

	// 同前缀下的普通接口照常转发
	for _, path := range []string{"/api/orders/M1/cancel", "/api/users/membership/attacker/discount"} {
		req, _ := http.NewRequest(http.MethodGet, gw.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestWebSocketPassThrough(t *testing.T) {
	upgrader := websocket.Upgrader{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(mt, append([]byte("echo:"+r.URL.Query().Get("userId")+":"), msg...))
	}))
	defer backend.Close()

	gw := newGateway(t, map[string][]string{bootstrap.ChatService: {deadUpstream, backend.URL}}, nil)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(gw.URL, "http")+"/ws/chat?userId=u1", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "echo:u1:hi", string(msg))
}
