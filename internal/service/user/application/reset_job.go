// internal/service/user/application/reset_job.go
package application

import (
	"context"
	"time"

	"nexusmall/internal/pkg/logger"
)

// Locker 是分布式互斥锁的最小接口，由 Zookeeper 锁实现
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock() error
}

// ResetJob 周期性执行 MonthlyResetAll。
// 配置了 Locker 时只有拿到锁的实例会执行本轮。
type ResetJob struct {
	service  *UserApplicationService
	interval time.Duration
	locker   Locker
}

func NewResetJob(service *UserApplicationService, interval time.Duration, locker Locker) *ResetJob {
	return &ResetJob{service: service, interval: interval, locker: locker}
}

// Run 启动时先执行一次，之后每个 interval 执行一次，直到 ctx 结束
func (j *ResetJob) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *ResetJob) tick(ctx context.Context) {
	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("membership reset lock unavailable, skipping round")
			return
		}
		if !ok {
			logger.Ctx(ctx).Debug().Msg("another instance holds the membership reset lock")
			return
		}
		defer func() {
			if err := j.locker.Unlock(); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("release membership reset lock")
			}
		}()
	}
	if _, err := j.service.MonthlyResetAll(ctx); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("monthly membership reset failed")
	}
}
