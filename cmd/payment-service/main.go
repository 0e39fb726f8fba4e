// cmd/payment-service/main.go
package main

import (
	"time"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/service/payment/application"
	"nexusmall/internal/service/payment/domain"
	"nexusmall/internal/service/payment/infrastructure/adapter"
	"nexusmall/internal/service/payment/interfaces"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.PaymentService,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config.VNPay
			gateway := domain.NewGateway(domain.GatewayConfig{
				TmnCode:    cfg.TmnCode,
				HashSecret: cfg.HashSecret,
				PayURL:     cfg.PayURL,
				ReturnURL:  cfg.ReturnURL,
				Expire:     time.Duration(cfg.ExpireMinutes) * time.Minute,
				Location:   appCtx.Config.Location(),
			})
			svc := application.NewPaymentApplicationService(gateway, adapter.NewOrderHTTPAdapter(appCtx.HTTPClient), appCtx.Tracer)
			interfaces.NewPaymentHandler(svc).RegisterRoutes(appCtx.Router)
			return nil
		},
	})
}
