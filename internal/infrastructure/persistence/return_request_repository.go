package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citadelbuy/returns/internal/domain/finance"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/citadelbuy/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReturnRequestRepository implements returns.ReturnRequestRepository using GORM
type GormReturnRequestRepository struct {
	db *gorm.DB
}

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

func (r *GormReturnRequestRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, product_name ASC")
		}).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC")
		})
}

// FindByID finds a return request by its ID
func (r *GormReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	var model models.ReturnRequestModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRMANumber finds a return request by its RMA number
func (r *GormReturnRequestRepository) FindByRMANumber(ctx context.Context, rmaNumber string) (*returns.ReturnRequest, error) {
	var model models.ReturnRequestModel
	if err := r.withChildren(ctx).Where("rma_number = ?", rmaNumber).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds return requests matching the filter
func (r *GormReturnRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var rows []models.ReturnRequestModel
	query := r.applyFilter(
		r.withChildren(ctx).Model(&models.ReturnRequestModel{}),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]returns.ReturnRequest, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, nil
}

// Count counts return requests matching the filter
func (r *GormReturnRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ReturnRequestModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByRMANumber checks if an RMA number is already in use
func (r *GormReturnRequestRepository) ExistsByRMANumber(ctx context.Context, rmaNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReturnRequestModel{}).
		Where("rma_number = ?", rmaNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new return request together with its items and timeline
func (r *GormReturnRequestRepository) Save(ctx context.Context, rr *returns.ReturnRequest) error {
	model := models.ReturnRequestModelFromDomain(rr)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock updates a return request guarded by its version. Items are
// upserted and timeline entries appended; neither is ever deleted.
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, rr *returns.ReturnRequest) error {
	model := models.ReturnRequestModelFromDomain(rr)
	expected := rr.Version
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReturnRequestModel{}).
			Where("id = ? AND version = ?", rr.ID, expected).
			Updates(map[string]any{
				"status":              model.Status,
				"refund_amount":       model.RefundAmount,
				"restocking_fee":      model.RestockingFee,
				"shipping_refund":     model.ShippingRefund,
				"comments":            model.Comments,
				"rejected_reason":     model.RejectedReason,
				"inspection_notes":    model.InspectionNotes,
				"inspection_photos":   model.InspectionPhotos,
				"tracking_number":     model.TrackingNumber,
				"label_carrier":       model.LabelCarrier,
				"label_service_level": model.LabelServiceLevel,
				"label_url":           model.LabelURL,
				"label_format":        model.LabelFormat,
				"label_created_at":    model.LabelCreatedAt,
				"approved_at":         model.ApprovedAt,
				"approved_by":         model.ApprovedBy,
				"rejected_at":         model.RejectedAt,
				"received_at":         model.ReceivedAt,
				"inspected_at":        model.InspectedAt,
				"inspected_by":        model.InspectedBy,
				"completed_at":        model.CompletedAt,
				"cancelled_at":        model.CancelledAt,
				"cancelled_by":        model.CancelledBy,
				"version":             expected + 1,
				"updated_at":          now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.ReturnRequestModel{}).Where("id = ?", rr.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return fmt.Errorf("failed to save return item: %w", err)
			}
		}
		if len(model.Timeline) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.Timeline).Error; err != nil {
				return fmt.Errorf("failed to append timeline: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	rr.Version = expected + 1
	rr.UpdatedAt = now
	return nil
}

// Analytics aggregates returns, refunds and issued store credit
func (r *GormReturnRequestRepository) Analytics(ctx context.Context, q returns.AnalyticsQuery) (*returns.Analytics, error) {
	out := returns.NewAnalytics()
	scope := func(db *gorm.DB, dateColumn string) *gorm.DB {
		if q.From != nil {
			db = db.Where(dateColumn+" >= ?", *q.From)
		}
		if q.To != nil {
			db = db.Where(dateColumn+" <= ?", *q.To)
		}
		if q.UserID != nil {
			db = db.Where("user_id = ?", *q.UserID)
		}
		return db
	}
	base := func() *gorm.DB {
		return scope(r.db.WithContext(ctx).Model(&models.ReturnRequestModel{}), "requested_at")
	}

	type groupRow struct {
		GroupKey string
		Total    int64
	}
	groups := []struct {
		column string
		apply  func(key string, n int64)
	}{
		{"status", func(k string, n int64) { out.ByStatus[returns.ReturnStatus(k)] = n }},
		{"reason", func(k string, n int64) { out.ByReason[returns.ReturnReason(k)] = n }},
		{"return_type", func(k string, n int64) { out.ByType[returns.ReturnType(k)] = n }},
	}
	for _, g := range groups {
		var rows []groupRow
		if err := base().
			Select(g.column + " AS group_key, COUNT(*) AS total").
			Group(g.column).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to group returns by %s: %w", g.column, err)
		}
		for _, row := range rows {
			g.apply(row.GroupKey, row.Total)
		}
	}

	if err := base().Count(&out.TotalReturns).Error; err != nil {
		return nil, err
	}

	var err error
	if out.TotalRequestedValue, err = sumColumn(base(), "refund_amount"); err != nil {
		return nil, err
	}

	refunds := scope(r.db.WithContext(ctx).Model(&models.RefundModel{}), "processed_at").
		Where("status = ?", finance.RefundStatusCompleted)
	if out.TotalRefunded, err = sumColumn(refunds, "total_amount"); err != nil {
		return nil, err
	}

	credits := scope(r.db.WithContext(ctx).Model(&models.StoreCreditTransactionModel{}), "created_at").
		Where("reference_type = ? AND type = ?", storecredit.ReferenceTypeReturn, storecredit.TransactionTypeRefund)
	if out.TotalStoreCredit, err = sumColumn(credits, "amount"); err != nil {
		return nil, err
	}

	return out, nil
}

// sumColumn returns SUM(column) over the query, treating NULL as zero
func sumColumn(query *gorm.DB, column string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := query.Select("SUM(" + column + ")").Row().Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", column, err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// applyFilter applies filter options to the query
func (r *GormReturnRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, ReturnRequestSortFields, "requested_at")
	return query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
}

// applyFilterWithoutPagination applies filters without pagination
func (r *GormReturnRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("rma_number LIKE ? OR order_number LIKE ? OR tracking_number LIKE ?", like, like, like)
	}

	for key, value := range filter.Filters {
		switch key {
		case "user_id", "order_id", "status", "return_type", "reason":
			query = query.Where(key+" = ?", value)
		case "start_date":
			query = query.Where("requested_at >= ?", value)
		case "end_date":
			query = query.Where("requested_at <= ?", value)
		}
	}

	return query
}

// Ensure GormReturnRequestRepository implements ReturnRequestRepository
var _ returns.ReturnRequestRepository = (*GormReturnRequestRepository)(nil)
