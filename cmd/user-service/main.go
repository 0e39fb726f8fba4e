// cmd/user-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/zookeeper"
	"nexusmall/internal/service/user/application"
	"nexusmall/internal/service/user/infrastructure"
	"nexusmall/internal/service/user/interfaces"
)

const (
	serviceName   = bootstrap.UserService
	resetLockName = "membership-reset"
)

// main 函数是应用的"组装根" (Composition Root)
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config

			repo, err := infrastructure.NewMongoUserRepository(context.Background(), appCtx.Mongo)
			if err != nil {
				return err
			}
			svc := application.NewUserApplicationService(repo, appCtx.Tracer, cfg.Location())
			interfaces.NewUserHandler(svc).RegisterRoutes(appCtx.Router)

			// 多实例部署时用 Zookeeper 保证同一时刻只有一个实例执行月度清零
			var locker application.Locker
			if len(cfg.Zookeeper.Servers) > 0 {
				conn, err := zookeeper.Connect(cfg.Zookeeper.Servers, cfg.Zookeeper.SessionTimeout)
				if err != nil {
					return err
				}
				appCtx.OnShutdown(func(context.Context) error { conn.Close(); return nil })

				lock, err := zookeeper.NewDistributedLock(conn, resetLockName)
				if err != nil {
					return err
				}
				locker = lock
				logger.Ctx(context.Background()).Info().Str("lock", lock.Path()).Msg("membership reset guarded by zookeeper")
			}

			job := application.NewResetJob(svc, cfg.Membership.ResetInterval, locker)
			appCtx.Go("membership-reset", job.Run)
			return nil
		},
	})
}
