package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

// intSum adds every data point of an int64 sum whose attributes include attrs
func intSum(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if hasAttrs(dp.Attributes, attrs) {
			total += dp.Value
		}
	}
	return total
}

func floatSum(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) float64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok, "%s is not a float64 sum", m.Name)
	var total float64
	for _, dp := range sum.DataPoints {
		if hasAttrs(dp.Attributes, attrs) {
			total += dp.Value
		}
	}
	return total
}

func hasAttrs(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}

func TestNewSettlementMetrics_NilMeter(t *testing.T) {
	m, err := NewSettlementMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestSettlementMetrics(t *testing.T) {
	ctx := context.Background()
	reader, mp := newTestMeter(t)
	m, err := NewSettlementMetrics(mp.Meter("test"))
	require.NoError(t, err)

	m.RecordReturnCreated(ctx, "REFUND", "DEFECTIVE")
	m.RecordReturnCreated(ctx, "REFUND", "DEFECTIVE")
	m.RecordReturnCreated(ctx, "STORE_CREDIT", "WRONG_SIZE")
	m.RecordRefundProcessed(ctx, "ORIGINAL_PAYMENT", "completed", decimal.RequireFromString("129.97"), "usd")
	m.RecordRefundProcessed(ctx, "ORIGINAL_PAYMENT", "failed", decimal.RequireFromString("50"), "USD")
	m.RecordStoreCreditIssued(ctx, decimal.RequireFromString("12.5"), "USD")

	metrics := collect(t, reader)

	created := metrics["returns_created_total"]
	assert.Equal(t, int64(3), intSum(t, created))
	assert.Equal(t, int64(2), intSum(t, created, AttrReturnType.String("REFUND"), AttrReturnReason.String("DEFECTIVE")))

	processed := metrics["refunds_processed_total"]
	assert.Equal(t, int64(1), intSum(t, processed, AttrRefundOutcome.String("completed")))
	assert.Equal(t, int64(1), intSum(t, processed, AttrRefundOutcome.String("failed")))

	assert.InDelta(t, 129.97, floatSum(t, metrics["returns_refund_amount_total"], AttrCurrency.String("USD")), 0.0001)
	assert.InDelta(t, 12.5, floatSum(t, metrics["store_credit_issued_total"]), 0.0001)
}

func TestAmountCounter_IgnoresNegative(t *testing.T) {
	ctx := context.Background()
	reader, mp := newTestMeter(t)
	c, err := NewAmountCounter(mp.Meter("test"), "amount_total", "test")
	require.NoError(t, err)

	c.Add(ctx, 5)
	c.Add(ctx, -2)

	assert.InDelta(t, 5.0, floatSum(t, collect(t, reader)["amount_total"]), 0.0001)
}

func TestDBMetrics_Plugin(t *testing.T) {
	reader, mp := newTestMeter(t)

	db, err := gorm.Open(sqlite.Open("file:telemetry_db_metrics?mode=memory&cache=shared"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(3)
	t.Cleanup(func() { _ = sqlDB.Close() })

	metrics, err := NewDBMetrics(mp.Meter("db.client"), sqlDB, 0)
	require.NoError(t, err)
	require.NoError(t, db.Use(NewDBMetricsPlugin(metrics)))
	t.Cleanup(func() { _ = metrics.Stop() })

	require.NoError(t, db.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO widgets (name) VALUES (?)", "a").Error)
	var count int64
	require.NoError(t, db.Table("widgets").Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Error(t, db.Exec("SELECT * FROM missing_table").Error)

	collected := collect(t, reader)
	queries := collected["db_query_total"]
	assert.GreaterOrEqual(t, intSum(t, queries), int64(4))
	assert.GreaterOrEqual(t, intSum(t, queries, AttrDBOperation.String("SELECT")), int64(2))
	assert.Equal(t, int64(1), intSum(t, queries, AttrDBOperation.String("INSERT")))
	assert.GreaterOrEqual(t, intSum(t, collected["db_query_errors_total"]), int64(1))

	maxConns, ok := collected["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, maxConns.DataPoints, 1)
	assert.Equal(t, int64(3), maxConns.DataPoints[0].Value)
}

func TestDBMetrics_SlowQueries(t *testing.T) {
	ctx := context.Background()
	reader, mp := newTestMeter(t)
	metrics, err := NewDBMetrics(mp.Meter("db.client"), nil, 100*time.Millisecond)
	require.NoError(t, err)

	metrics.RecordQuery(ctx, "select", "return_requests", 50*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "update", "refunds", 300*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "", "", 400*time.Millisecond, nil)

	collected := collect(t, reader)
	assert.Equal(t, int64(1), intSum(t, collected["db_query_total"], AttrDBOperation.String("OTHER")))
	slow := collected["db_slow_query_total"]
	assert.Equal(t, int64(2), intSum(t, slow))
	assert.Equal(t, int64(1), intSum(t, slow, AttrDBTable.String("refunds")))
	assert.Equal(t, int64(1), intSum(t, slow, AttrDBTable.String("unknown")))
	assert.NoError(t, metrics.Stop())
}

func TestDetectOperationType(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperationType("  select * from refunds"))
	assert.Equal(t, "INSERT", detectOperationType("INSERT INTO refunds"))
	assert.Equal(t, "UPDATE", detectOperationType("update refunds set"))
	assert.Equal(t, "DELETE", detectOperationType("DELETE FROM refunds"))
	assert.Equal(t, "OTHER", detectOperationType("CREATE TABLE x"))
}
