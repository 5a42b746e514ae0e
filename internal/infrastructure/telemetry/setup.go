package telemetry

import (
	"context"
	"errors"

	"github.com/citadelbuy/returns/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Providers bundles the three OpenTelemetry pipelines
type Providers struct {
	Tracer *TracerProvider
	Meter  *MeterProvider
	Logs   *LoggerProvider
}

// Setup creates every provider from configuration. Disabled pipelines fall
// back to no-op providers.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	tp, err := NewTracerProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mp, err := NewMeterProvider(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	lp, err := NewLoggerProvider(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	return &Providers{Tracer: tp, Meter: mp, Logs: lp}, nil
}

// Shutdown flushes logs last so shutdown messages of the other providers are exported
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
	)
}

// InstrumentDB installs gorm tracing and metrics according to cfg.
// The returned DBMetrics is nil when metrics are disabled.
func (p *Providers) InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) (*DBMetrics, error) {
	tracing := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         cfg.Enabled && cfg.DBTraceEnabled,
		LogFullSQL:      cfg.DBLogFullSQL,
		SlowQueryThresh: cfg.DBSlowQueryThresh,
	}, logger)
	if err := tracing.Register(db); err != nil {
		return nil, err
	}
	return RegisterDBMetrics(db, p.Meter, cfg.DBSlowQueryThresh, logger)
}
