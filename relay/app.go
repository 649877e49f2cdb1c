package relay

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	"github.com/rafinno25/applepay-poc/internal/metrics"
	"github.com/rafinno25/applepay-poc/internal/middleware"
	"github.com/rafinno25/applepay-poc/relay/applepay"
	"github.com/rafinno25/applepay-poc/relay/authorizenet"
)

// App is the main application, it contains all the components of the relay
// service and is responsible for starting and stopping them.
type App struct {
	srv    *http.Server
	wg     *sync.WaitGroup
	Addr   string
	logger *slog.Logger
	config *Config
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "relay"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))
	router.Use(metrics.Middleware)

	validator := applepay.NewClient(a.logger,
		a.config.MerchantCertPath,
		a.config.MerchantKeyPath,
		a.config.MerchantID,
		a.config.DisplayName)

	gateway := authorizenet.NewClient(a.logger, a.config.GatewayURL(), gatewayTimeout)

	service := NewService(a.logger, a.config, validator, gateway)

	api := NewAPI(a.logger, a.config, service)
	api.AppendRoutes(router)

	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started",
			slog.String("addr", a.Addr),
			slog.String("gateway", a.config.GatewayMode))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	a.srv.Shutdown(context.Background())

	a.wg.Wait()

	a.logger.Info("app stopped")
}
