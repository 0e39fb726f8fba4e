package application

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/service/chat/domain"
)

type memoryRepo struct {
	saved []*domain.Message
}

func (m *memoryRepo) Save(_ context.Context, msg *domain.Message) error {
	m.saved = append(m.saved, msg)
	return nil
}

func (m *memoryRepo) History(_ context.Context, userID string, limit int) ([]*domain.Message, error) {
	out := []*domain.Message{}
	for _, msg := range m.saved {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type mockRoles struct {
	RoleFunc func(ctx context.Context, userID string) (string, error)
}

func (m *mockRoles) Role(ctx context.Context, userID string) (string, error) {
	return m.RoleFunc(ctx, userID)
}

type published struct {
	key   string
	frame domain.OutboundFrame
}

type mockPublisher struct {
	sent []published
	err  error
}

func (m *mockPublisher) Publish(_ context.Context, key string, payload []byte) error {
	var f domain.OutboundFrame
	if err := json.Unmarshal(payload, &f); err != nil {
		return err
	}
	m.sent = append(m.sent, published{key: key, frame: f})
	return m.err
}

func newService(roles *mockRoles) (*ChatApplicationService, *memoryRepo, *mockPublisher) {
	repo := &memoryRepo{}
	pub := &mockPublisher{}
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := NewChatApplicationService(repo, roles, pub, noop.NewTracerProvider().Tracer("test")).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return svc, repo, pub
}

func decode(t *testing.T, b []byte) domain.OutboundFrame {
	t.Helper()
	var f domain.OutboundFrame
	require.NoError(t, json.Unmarshal(b, &f))
	return f
}

func TestIdentifyDegradesToUser(t *testing.T) {
	svc, _, _ := newService(&mockRoles{RoleFunc: func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	}})
	assert.Equal(t, domain.Sender{ID: "u1", Role: domain.RoleUser}, svc.Identify(context.Background(), "u1"))

	svc, _, _ = newService(&mockRoles{RoleFunc: func(context.Context, string) (string, error) { return "admin", nil }})
	assert.Equal(t, domain.RoleAdmin, svc.Identify(context.Background(), "a1").Role)
}

func TestRelayUserToAdmins(t *testing.T) {
	svc, repo, pub := newService(&mockRoles{})
	user := domain.Sender{ID: "u1", Role: domain.RoleUser}

	echo := decode(t, svc.Relay(context.Background(), user, []byte(`{"content":"đơn của tôi đâu?"}`)))
	require.Equal(t, domain.FrameMessage, echo.Type)
	assert.Equal(t, domain.AdminsRoom, echo.Message.ReceiverID)
	assert.NotEmpty(t, echo.Message.ID)

	require.Len(t, repo.saved, 1)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, domain.AdminsRoom, pub.sent[0].key)
	assert.Equal(t, echo.Message.ID, pub.sent[0].frame.Message.ID)
}

func TestRelayRejections(t *testing.T) {
	svc, repo, pub := newService(&mockRoles{})
	admin := domain.Sender{ID: "a1", Role: domain.RoleAdmin}

	for _, raw := range []string{`{"content":"hi"}`, `{"receiverId":"u1","content":""}`, `not json`} {
		f := decode(t, svc.Relay(context.Background(), admin, []byte(raw)))
		assert.Equal(t, domain.FrameError, f.Type, raw)
		assert.NotEmpty(t, f.Error)
	}
	assert.Empty(t, repo.saved)
	assert.Empty(t, pub.sent)
}

func TestRelayKeepsMessageWhenDeliveryFails(t *testing.T) {
	svc, repo, pub := newService(&mockRoles{})
	pub.err = errors.New("redis down")

	f := decode(t, svc.Relay(context.Background(), domain.Sender{ID: "a1", Role: domain.RoleAdmin}, []byte(`{"receiverId":"u1","content":"ok"}`)))
	assert.Equal(t, domain.FrameMessage, f.Type)
	assert.Len(t, repo.saved, 1)
}

func TestHistoryOldestFirstWithLimit(t *testing.T) {
	svc, _, _ := newService(&mockRoles{})
	ctx := context.Background()
	user := domain.Sender{ID: "u1", Role: domain.RoleUser}
	admin := domain.Sender{ID: "a1", Role: domain.RoleAdmin}

	svc.Relay(ctx, user, []byte(`{"content":"1"}`))
	svc.Relay(ctx, admin, []byte(`{"receiverId":"u1","content":"2"}`))
	svc.Relay(ctx, user, []byte(`{"content":"3"}`))

	all, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].Content)

	last, err := svc.History(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].Content)
	assert.Equal(t, "3", last[1].Content)
}
