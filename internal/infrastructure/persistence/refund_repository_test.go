package persistence

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRefundRepository(t *testing.T) (*GormRefundRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockGormDB(t)
	return NewGormRefundRepository(gormDB), mock, mockDB
}

func TestGormRefundRepository_ClaimForProcessing_SQL(t *testing.T) {
	t.Run("claims a pending refund", func(t *testing.T) {
		repo, mock, mockDB := newMockRefundRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "refunds" SET .*"status"=\$1.* WHERE id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		claimed, err := repo.ClaimForProcessing(context.Background(), id)

		assert.NoError(t, err)
		assert.True(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refund already claimed", func(t *testing.T) {
		repo, mock, mockDB := newMockRefundRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "refunds" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		claimed, err := repo.ClaimForProcessing(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.False(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock, mockDB := newMockRefundRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "refunds" SET`).
			WillReturnError(errors.New("connection reset"))

		claimed, err := repo.ClaimForProcessing(context.Background(), uuid.New())

		assert.Error(t, err)
		assert.False(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRefundRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormRefundRepository(db)
	r := seedInspectedReturn(t, db, returns.ReturnTypeRefund)

	refund := newTestRefund(t, r)
	require.NoError(t, repo.Save(ctx, refund))

	t.Run("one active refund per return", func(t *testing.T) {
		err := repo.Save(ctx, newTestRefund(t, r))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("finds the active refund", func(t *testing.T) {
		found, err := repo.FindActiveByReturnID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, refund.ID, found.ID)
		assert.Equal(t, "STRIPE", found.Gateway)
		assert.Equal(t, finance.RefundStatusPending, found.Status)
		assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("129.97")))
	})

	t.Run("update requires a claim", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, refund.ID)
		require.NoError(t, err)
		stale.Status = finance.RefundStatusCompleted

		err = repo.Update(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("claim then complete", func(t *testing.T) {
		claimed, err := repo.ClaimForProcessing(ctx, refund.ID)
		require.NoError(t, err)
		require.True(t, claimed)

		again, err := repo.ClaimForProcessing(ctx, refund.ID)
		require.NoError(t, err)
		assert.False(t, again)

		loaded, err := repo.FindByID(ctx, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.RefundStatusProcessing, loaded.Status)
		require.NoError(t, loaded.Complete(testAdminID, "re_123"))
		require.NoError(t, repo.Update(ctx, loaded))

		done, err := repo.FindByID(ctx, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.RefundStatusCompleted, done.Status)
		assert.Equal(t, "re_123", done.TransactionID)
		require.NotNil(t, done.ProcessedAt)

		// Terminal refunds are never rewritten
		assert.ErrorIs(t, repo.Update(ctx, done), shared.ErrConcurrencyConflict)
	})

	t.Run("lists by return", func(t *testing.T) {
		list, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]any{"return_id": r.ID}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, refund.ID, list[0].ID)
	})

	t.Run("missing refund", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindActiveByReturnID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormRefundRepository_CancelledRefundFreesTheReturn(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormRefundRepository(db)
	r := seedInspectedReturn(t, db, returns.ReturnTypeRefund)

	refund := newTestRefund(t, r)
	require.NoError(t, repo.Save(ctx, refund))

	loaded, err := repo.FindByID(ctx, refund.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Cancel(testAdminID, "wrong amount"))
	require.NoError(t, repo.Transition(ctx, loaded, finance.RefundStatusPending))

	stored, err := repo.FindByID(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.RefundStatusCancelled, stored.Status)
	assert.Equal(t, "wrong amount", stored.Notes)
	assert.Equal(t, loaded.Version, stored.Version)

	_, err = repo.FindActiveByReturnID(ctx, r.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.Save(ctx, newTestRefund(t, r)))
}

func TestGormRefundRepository_TransitionLosesToClaim(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormRefundRepository(db)
	r := seedInspectedReturn(t, db, returns.ReturnTypeRefund)
	refund := newTestRefund(t, r)
	require.NoError(t, repo.Save(ctx, refund))

	loaded, err := repo.FindByID(ctx, refund.ID)
	require.NoError(t, err)

	claimed, err := repo.ClaimForProcessing(ctx, refund.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, loaded.Cancel(testAdminID, ""))
	assert.ErrorIs(t, repo.Transition(ctx, loaded, finance.RefundStatusPending), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.RefundStatusProcessing, stored.Status)

	t.Run("stale processing refund is failed once", func(t *testing.T) {
		require.NoError(t, stored.Fail(testAdminID, "worker crashed"))
		require.NoError(t, repo.Transition(ctx, stored, finance.RefundStatusProcessing))

		again, err := repo.FindByID(ctx, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.RefundStatusFailed, again.Status)
		assert.Equal(t, "worker crashed", again.FailedReason)
		require.NotNil(t, again.FailedAt)

		// A late outcome from the abandoned worker is rejected
		assert.ErrorIs(t, repo.Update(ctx, again), shared.ErrConcurrencyConflict)
	})
}

func TestGormRefundRepository_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormRefundRepository(db)
	r := seedInspectedReturn(t, db, returns.ReturnTypeRefund)
	refund := newTestRefund(t, r)
	require.NoError(t, repo.Save(ctx, refund))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.ClaimForProcessing(ctx, refund.ID)
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
}
