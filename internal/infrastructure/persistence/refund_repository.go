package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRefundRepository implements finance.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund by its ID
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Refund, error) {
	var model models.RefundModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByReturnID finds the non-cancelled refund of a return
func (r *GormRefundRepository) FindActiveByReturnID(ctx context.Context, returnID uuid.UUID) (*finance.Refund, error) {
	var model models.RefundModel
	if err := r.db.WithContext(ctx).
		Where("return_id = ? AND status <> ?", returnID, finance.RefundStatusCancelled).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds refunds matching the filter
func (r *GormRefundRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Refund, error) {
	query := r.db.WithContext(ctx).Model(&models.RefundModel{})
	for key, value := range filter.Filters {
		switch key {
		case "user_id", "return_id", "status", "method":
			query = query.Where(key+" = ?", value)
		}
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	sortField := ValidateSortField(filter.OrderBy, RefundSortFields, "created_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))

	var rows []models.RefundModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]finance.Refund, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, nil
}

// Save inserts a new refund
func (r *GormRefundRepository) Save(ctx context.Context, refund *finance.Refund) error {
	if err := r.db.WithContext(ctx).Create(models.RefundModelFromDomain(refund)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ClaimForProcessing moves a PENDING refund to PROCESSING with a single
// conditional UPDATE. Only one caller can observe RowsAffected == 1.
func (r *GormRefundRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RefundModel{}).
		Where("id = ? AND status = ?", id, finance.RefundStatusPending).
		Updates(map[string]any{
			"status":     finance.RefundStatusProcessing,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Update persists the outcome of a claimed refund. Only PROCESSING rows are
// touched, so a refund that reached a terminal state is never rewritten.
func (r *GormRefundRepository) Update(ctx context.Context, refund *finance.Refund) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefundModel{}).
		Where("id = ? AND status = ?", refund.ID, finance.RefundStatusProcessing).
		Updates(map[string]any{
			"status":         refund.Status,
			"transaction_id": refund.TransactionID,
			"notes":          refund.Notes,
			"processed_at":   refund.ProcessedAt,
			"processed_by":   refund.ProcessedBy,
			"failed_at":      refund.FailedAt,
			"failed_reason":  refund.FailedReason,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     refund.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Transition persists a status change made outside a processing claim. The
// row is written only while it still holds status from at the version the
// refund was loaded with, so a concurrent claim or outcome wins.
func (r *GormRefundRepository) Transition(ctx context.Context, refund *finance.Refund, from finance.RefundStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefundModel{}).
		Where("id = ? AND status = ? AND version = ?", refund.ID, from, refund.Version).
		Updates(map[string]any{
			"status":        refund.Status,
			"notes":         refund.Notes,
			"processed_by":  refund.ProcessedBy,
			"failed_at":     refund.FailedAt,
			"failed_reason": refund.FailedReason,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    refund.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	refund.Version++
	return nil
}

// Ensure GormRefundRepository implements RefundRepository
var _ finance.RefundRepository = (*GormRefundRepository)(nil)
