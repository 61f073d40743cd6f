package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PriceQuery/pkg/config"
	xhttp "PriceQuery/pkg/http"
	"PriceQuery/pkg/http/middleware"
	pkgkafka "PriceQuery/pkg/kafka"
	applogger "PriceQuery/pkg/logger"
)

// App encapsulates the application lifecycle. Infrastructure clients are
// closed by the cleanup returned from the injector, not here.
type App struct {
	cfg      *config.Config
	l        *applogger.Logger
	handler  xhttp.Handler
	limiter  middleware.Allower
	consumer *pkgkafka.Consumer

	httpServer *xhttp.Server
}

// New creates the App. consumer and limiter may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	limiter middleware.Allower,
	consumer *pkgkafka.Consumer,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, handler: handler, limiter: limiter, consumer: consumer}
}

// Run starts the consumer and the HTTP server and blocks until SIGINT or
// SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []xhttp.ServerOption{
		xhttp.WithLogger(a.l),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(a.cfg.Server.SlowRequest),
		xhttp.WithCORS(a.cfg.Server.CORS),
	}
	if a.limiter != nil {
		opts = append(opts, xhttp.WithRateLimit(a.limiter))
	}
	a.httpServer = xhttp.NewServer([]xhttp.Handler{a.handler}, opts...)

	// consumer outlives the signal context; Stop ends it
	if a.consumer != nil {
		if err := a.consumer.Start(context.Background()); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("pricequery started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("bars", a.cfg.Backend.Bars),
		applogger.String("registry", a.cfg.Backend.Registry),
		applogger.Bool("kafka", a.consumer != nil),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.l.Info("shutdown complete")
	return firstErr
}
