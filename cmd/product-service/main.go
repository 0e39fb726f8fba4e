// cmd/product-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/service/product/application"
	"nexusmall/internal/service/product/infrastructure"
	"nexusmall/internal/service/product/interfaces"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.ProductService,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			repo, err := infrastructure.NewMongoProductRepository(context.Background(), appCtx.Mongo)
			if err != nil {
				return err
			}
			svc := application.NewProductApplicationService(repo, appCtx.Tracer)
			interfaces.NewProductHandler(svc).RegisterRoutes(appCtx.Router)
			return nil
		},
	})
}
