// internal/service/user/domain/repository.go
package domain

import "context"

// UserRepository 定义了用户聚合的持久化接口，由基础设施层实现
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByUserID(ctx context.Context, userID string) (*User, error)
	List(ctx context.Context) ([]*User, error)

	// Update 只在 version 未变化时写入，成功后 version 加一；否则返回 Conflict
	Update(ctx context.Context, user *User) error

	Delete(ctx context.Context, userID string) error

	// ListNeedingReset 返回 lastResetMonth 不等于 month 的用户
	ListNeedingReset(ctx context.Context, month string) ([]*User, error)
}
