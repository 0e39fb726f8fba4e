// cmd/api-gateway/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/service/gateway"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.APIGateway,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config
			ctx := context.Background()

			var auth *gateway.Authenticator
			if cfg.Gateway.Auth.Enabled {
				auth = gateway.NewAuthenticator(cfg.Gateway.Auth.Secret, cfg.Gateway.Auth.PublicPrefixes)
			} else {
				logger.Ctx(ctx).Warn().Msg("⚠️ gateway auth disabled, requests are forwarded without identity")
			}

			proxy := gateway.NewProxy(appCtx.Tracer, appCtx.Resolver, cfg.HTTP.ConnectTimeout, cfg.HTTP.ReadTimeout)
			cors := gateway.CORSConfig{
				AllowedOrigins: cfg.Gateway.AllowedOrigins,
				AllowedMethods: cfg.Gateway.AllowedMethods,
				AllowedHeaders: cfg.Gateway.AllowedHeaders,
			}
			gateway.New(proxy, cors, auth, gateway.DefaultRoutes).RegisterRoutes(appCtx.Router)

			for _, rt := range gateway.DefaultRoutes {
				logger.Ctx(ctx).Info().Str("prefix", rt.Prefix).Strs("upstreams", appCtx.Resolver.Endpoints(rt.Service)).Msg("route registered")
			}
			return nil
		},
	})
}
