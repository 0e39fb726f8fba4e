// internal/service/chat/infrastructure/adapter/user_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/chat/domain/port"
)

// UserHTTPAdapter 从 user-service 读取用户角色
type UserHTTPAdapter struct {
	client *httpclient.Client
}

var _ port.RoleLookup = (*UserHTTPAdapter)(nil)

func NewUserHTTPAdapter(client *httpclient.Client) *UserHTTPAdapter {
	return &UserHTTPAdapter{client: client}
}

func (a *UserHTTPAdapter) Role(ctx context.Context, userID string) (string, error) {
	var out struct {
		Role string `json:"role"`
	}
	err := a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.UserService,
		Method:  http.MethodGet,
		Path:    "/api/users/" + url.PathEscape(userID),
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Role, nil
}
