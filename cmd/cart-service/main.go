// cmd/cart-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/service/cart/application"
	"nexusmall/internal/service/cart/infrastructure"
	"nexusmall/internal/service/cart/infrastructure/adapter"
	"nexusmall/internal/service/cart/interfaces"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.CartService,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			repo, err := infrastructure.NewMongoCartRepository(context.Background(), appCtx.Mongo)
			if err != nil {
				return err
			}
			catalog := adapter.NewProductHTTPAdapter(appCtx.HTTPClient)
			svc := application.NewCartApplicationService(repo, catalog, appCtx.Tracer)
			interfaces.NewCartHandler(svc).RegisterRoutes(appCtx.Router)
			return nil
		},
	})
}
