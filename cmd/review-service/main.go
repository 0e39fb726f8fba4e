// cmd/review-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/service/review/application"
	"nexusmall/internal/service/review/infrastructure"
	"nexusmall/internal/service/review/interfaces"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.ReviewService,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			repo, err := infrastructure.NewMongoReviewRepository(context.Background(), appCtx.Mongo)
			if err != nil {
				return err
			}
			svc := application.NewReviewApplicationService(repo, appCtx.Tracer)
			interfaces.NewReviewHandler(svc).RegisterRoutes(appCtx.Router)
			return nil
		},
	})
}
