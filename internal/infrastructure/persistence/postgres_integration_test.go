//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/migration"
	"github.com/citadelbuy/returns/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a throwaway PostgreSQL container and applies the
// embedded migrations to it
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("returns_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	status, err := m.Status()
	require.NoError(t, err)
	require.False(t, status.Dirty)

	return db
}

func TestPostgres_RefundInvariants(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	refunds := NewGormRefundRepository(db)
	r := seedInspectedReturn(t, db, returns.ReturnTypeRefund)

	refund := newTestRefund(t, r)
	require.NoError(t, refunds.Save(ctx, refund))

	t.Run("partial unique index allows one active refund", func(t *testing.T) {
		assert.ErrorIs(t, refunds.Save(ctx, newTestRefund(t, r)), shared.ErrAlreadyExists)
	})

	t.Run("exactly one concurrent claim wins", func(t *testing.T) {
		const workers = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				claimed, err := refunds.ClaimForProcessing(ctx, refund.ID)
				assert.NoError(t, err)
				if claimed {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, winners)
	})
}

func TestPostgres_ReturnVersioning(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	repo := NewGormReturnRequestRepository(db)
	r := seedReturn(t, db, returns.ReturnTypeRefund)

	first, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)

	require.NoError(t, first.Cancel(first.UserID))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Approve(testAdminID, returns.ApprovalTerms{}))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)

	byRMA, err := repo.FindByRMANumber(ctx, r.RMANumber)
	require.NoError(t, err)
	assert.Equal(t, returns.ReturnStatusCancelled, byRMA.Status)
}
