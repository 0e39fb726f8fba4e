// internal/pkg/retry/conflict.go
package retry

import (
	"context"
	"time"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
)

// DefaultAttempts 是乐观并发写入的默认尝试次数
const DefaultAttempts = 3

// OnConflict 执行 fn，遇到 Conflict 时重新执行（fn 内部需要重新读取实体）。
// 其他错误立即返回；用完次数后返回最后一次的 Conflict。
func OnConflict(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil || !apperr.Is(err, apperr.KindConflict) {
			return err
		}
		logger.Ctx(ctx).Debug().Err(err).Int("attempt", i+1).Msg("optimistic write conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 5 * time.Millisecond):
		}
	}
	return err
}
