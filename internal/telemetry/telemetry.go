// Package telemetry provides OpenTelemetry metrics for coed, exported in
// Prometheus format over a small HTTP server.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// Config configures the telemetry subsystem.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	ListenAddr     string
}

// Telemetry owns the meter provider and the /metrics endpoint.
//
// When disabled it is a no-op: Meter returns the global (no-op) meter and
// Start/Shutdown return nil.
type Telemetry struct {
	cfg    Config
	logger *zap.Logger

	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	echo          *echo.Echo
}

// New builds the telemetry stack. With cfg.Enabled false it returns a
// no-op instance and never touches the network.
func New(cfg Config, logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Telemetry{cfg: cfg, logger: logger}
	if !cfg.Enabled {
		return t, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	t.registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(t.meterProvider)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	t.echo = e

	return t, nil
}

// Meter returns a meter for the given instrumentation scope.
func (t *Telemetry) Meter(name string) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return t.meterProvider.Meter(name)
}

// Handler returns the HTTP handler serving /metrics and /healthz.
func (t *Telemetry) Handler() http.Handler {
	if t == nil || t.echo == nil {
		return nil
	}
	return t.echo
}

// Start serves the metrics endpoint in the background. Listen errors
// other than graceful close are logged, not returned.
func (t *Telemetry) Start() {
	if t == nil || t.echo == nil {
		return
	}
	go func() {
		if err := t.echo.Start(t.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	t.logger.Info("metrics server started", zap.String("addr", t.cfg.ListenAddr))
}

// Shutdown stops the HTTP server and flushes the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	var errs []error
	if t.echo != nil {
		if err := t.echo.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
