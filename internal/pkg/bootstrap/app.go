// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/pkg/nacos"
	"nexusmall/internal/pkg/tracing"
)

// AppCtx 是交给每个服务组装自身依赖的上下文
type AppCtx struct {
	Router     *mux.Router
	Config     *Config
	Mongo      *mongo.Database
	HTTPClient *httpclient.Client
	Resolver   httpclient.Resolver // 与 HTTPClient 共用的地址解析
	Tracer     trace.Tracer

	lc *lifecycle
}

// Go 注册一个随服务启动、随 ctx 取消而退出的后台任务
func (a AppCtx) Go(name string, fn func(ctx context.Context) error) {
	a.lc.workers = append(a.lc.workers, worker{name: name, fn: fn})
}

// OnShutdown 注册关停时的清理动作，按后进先出执行
func (a AppCtx) OnShutdown(fn func(ctx context.Context) error) {
	a.lc.closers = append(a.lc.closers, fn)
}

// AppInfo 包含了启动一个微服务所需的所有特定信息
type AppInfo struct {
	ServiceName      string
	UseMongo         bool
	RegisterHandlers func(appCtx AppCtx) error // 每个服务注册自己的路由和后台任务
}

type worker struct {
	name string
	fn   func(ctx context.Context) error
}

type lifecycle struct {
	workers []worker
	closers []func(ctx context.Context) error
}

// close 后进先出地执行清理动作，执行后清空，重复调用无副作用
func (lc *lifecycle) close(ctx context.Context) {
	for i := len(lc.closers) - 1; i >= 0; i-- {
		if err := lc.closers[i](ctx); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("cleanup failed")
		}
	}
	lc.closers = nil
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑
func StartService(info AppInfo) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := Load(getEnv("CONFIG_PATH", "configs/config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(info.ServiceName, cfg.Log.Level, cfg.Log.Pretty)

	if err := run(info, cfg); err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msgf("service %s exited", info.ServiceName)
	}
}

func run(info AppInfo, cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	lc := &lifecycle{}
	// 启动中途失败时也要释放已经打开的资源
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		lc.close(cleanupCtx)
	}()

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Jaeger.Endpoint)
	if err != nil {
		return errors.Wrap(err, "init tracer provider")
	}
	lc.closers = append(lc.closers, tp.Shutdown)

	// 2. MongoDB
	var db *mongo.Database
	if info.UseMongo {
		client, database, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		db = database
		lc.closers = append(lc.closers, client.Disconnect)
	}

	// 3. 服务发现（可选）
	var resolver httpclient.Resolver = httpclient.StaticResolver(cfg.Endpoints())
	var registry *nacos.Client
	if cfg.Nacos.Enabled {
		registry, err = nacos.NewNacosClient(cfg.Nacos.Addrs, cfg.Nacos.Namespace, cfg.Nacos.Group)
		if err != nil {
			return err
		}
		resolver = httpclient.RegistryResolver{Registry: registry, Fallback: resolver}
		lc.closers = append(lc.closers, func(context.Context) error { registry.Close(); return nil })
	}

	// 4. 路由
	router := mux.NewRouter()
	router.Use(tracing.Middleware(info.ServiceName), metrics.Middleware(info.ServiceName))
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": info.ServiceName})
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Client().Ping(r.Context(), readpref.Primary()); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "mongo unavailable"})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	tracer := otel.Tracer(info.ServiceName)
	appCtx := AppCtx{
		Router:     router,
		Config:     cfg,
		Mongo:      db,
		HTTPClient: httpclient.NewClient(tracer, resolver, cfg.HTTP.ConnectTimeout, cfg.HTTP.ReadTimeout),
		Resolver:   resolver,
		Tracer:     tracer,
		lc:         lc,
	}
	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(appCtx); err != nil {
			return errors.Wrap(err, "register handlers")
		}
	}

	// 5. HTTP Server 与后台任务
	port := cfg.Port(info.ServiceName)
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Ctx(gctx).Info().Msgf("%s listening on :%d", info.ServiceName, port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "listen on %s", server.Addr)
		}
		return nil
	})
	for _, w := range lc.workers {
		w := w
		g.Go(func() error {
			logger.Ctx(gctx).Info().Str("worker", w.name).Msg("background worker started")
			if err := w.fn(gctx); err != nil && gctx.Err() == nil {
				return errors.Wrapf(err, "worker %s", w.name)
			}
			return nil
		})
	}

	// 6. 注册到 Nacos
	var ip string
	if registry != nil {
		if ip, err = nacos.GetOutboundIP(); err != nil {
			return err
		}
		if err := registry.Register(ctx, info.ServiceName, ip, port); err != nil {
			return err
		}
	}

	// 7. 阻塞直到收到信号或某个任务失败
	<-gctx.Done()
	logger.Ctx(ctx).Info().Msgf("Shutting down service %s...", info.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if registry != nil {
		if err := registry.Deregister(shutdownCtx, info.ServiceName, ip, port); err != nil {
			logger.Ctx(shutdownCtx).Error().Err(err).Msg("Error deregistering from Nacos")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Ctx(shutdownCtx).Error().Err(err).Msg("Error shutting down http server")
	}
	stop()
	runErr := g.Wait()

	lc.close(shutdownCtx)
	logger.Ctx(shutdownCtx).Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
	return runErr
}

// getEnv 从环境变量中读取配置
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
