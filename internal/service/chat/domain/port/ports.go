package port

import "context"

// RoleLookup 查询用户角色
type RoleLookup interface {
	Role(ctx context.Context, userID string) (string, error)
}

// Publisher 把一帧推给挂在 key 下的所有连接
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}
