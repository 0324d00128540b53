package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/audit"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/config"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/httpx"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/idempotency"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/logging"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/memstore"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/metrics"
	ord "github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/order"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/postgres"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/seller"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("order-service stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	sinks := audit.Fanout{st.audit}
	if len(cfg.KafkaBrokers) > 0 {
		ks := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		defer func() { _ = ks.Close() }()
		sinks = append(sinks, ks)
		log.Info("kafka audit enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.AuditTopic))
	}

	var idem idempotency.Store = idempotency.NewMemory()
	if cfg.RedisAddr != "" {
		rdb := idempotency.NewRedisClient(cfg.RedisAddr)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		idem = idempotency.NewRedis(rdb)
	}

	gateways := map[payment.Provider]payment.Gateway{payment.ProviderMock: payment.MockGateway{}}
	svc := ord.NewService(ord.Deps{
		Orders:   st.orders,
		Catalog:  st.catalog,
		Payments: payment.NewService(st.payments, gateways, log),
		Sellers:  st.sellers,
		Audit:    sinks,
		Tx:       txn.NewCoordinator(st.tx, log, m),
		Log:      log,
		Metrics:  m,
	}, ord.WithRestockOnCancel(cfg.RestockOnCancel))

	gin.SetMode(gin.ReleaseMode)
	r := newRouter(routerDeps{
		orders:   svc,
		users:    st.users,
		idem:     idem,
		log:      log,
		metrics:  m,
		gatherer: reg,
		service:  cfg.ServiceName,
		ping:     st.ping,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	errc := make(chan error, 1)
	go func() {
		log.Info("http_server_start", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("http_server_stopped")
	return nil
}

type routerDeps struct {
	orders   *ord.Service
	users    user.Directory
	idem     idempotency.Store
	log      *zap.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	service  string
	ping     func(context.Context) error
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Trace(d.service), httpx.Logger(d.log), httpx.Metrics(d.metrics))

	r.GET("/healthz", func(c *gin.Context) {
		if d.ping != nil {
			if err := d.ping(c.Request.Context()); err != nil {
				_ = c.Error(err)
				httpx.Abort(c, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	})
	if d.gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.gatherer)))
	}

	orders := r.Group("/orders", httpx.Actor(d.users))
	orders.POST("", httpx.RequireRole(user.RoleBuyer), createOrderHandler(d.orders, d.idem, d.log))
	orders.GET("", listOrdersHandler(d.orders))
	orders.GET("/:id", getOrderHandler(d.orders))
	orders.PATCH("/:id/status", updateOrderStatusHandler(d.orders))
	orders.POST("/:id/payment", httpx.RequireRole(user.RoleBuyer), processPaymentHandler(d.orders))

	payments := r.Group("/payments", httpx.Actor(d.users))
	payments.GET("", httpx.RequireRole(user.RoleAdmin), listPaymentsHandler(d.orders))
	payments.GET("/:id", getPaymentHandler(d.orders))
	return r
}

// storage is the set of repositories behind one STORE_DRIVER.
type storage struct {
	tx       txn.Beginner
	orders   ord.Repository
	catalog  ord.Catalog
	payments payment.Repository
	sellers  ord.SellerDirectory
	users    user.Directory
	audit    audit.Sink
	ping     func(context.Context) error
	close    func()
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		ms := memstore.New()
		seedDemo(ms, log)
		return &storage{
			tx:       ms,
			orders:   ms.Orders(),
			catalog:  ms.Products(),
			payments: ms.Payments(),
			sellers:  ms.Sellers(),
			users:    ms.Users(),
			audit:    ms.Audit(),
			close:    func() {},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("db migrate: %w", err)
			}
			log.Info("schema applied")
		}
		return &storage{
			tx:       postgres.NewBeginner(pool),
			orders:   ord.NewPGRepo(pool),
			catalog:  product.NewPGRepo(pool),
			payments: payment.NewPGRepo(pool),
			sellers:  seller.NewPGRepo(pool),
			users:    user.NewPGRepo(pool),
			audit:    audit.NewPGSink(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
