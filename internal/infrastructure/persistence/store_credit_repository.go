package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/domain/storecredit"
	"github.com/citadelbuy/returns/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStoreCreditRepository implements storecredit.Repository using GORM
type GormStoreCreditRepository struct {
	db *gorm.DB
}

// NewGormStoreCreditRepository creates a new GormStoreCreditRepository
func NewGormStoreCreditRepository(db *gorm.DB) *GormStoreCreditRepository {
	return &GormStoreCreditRepository{db: db}
}

// FindByUserID finds the store credit account of a user
func (r *GormStoreCreditRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*storecredit.Account, error) {
	var model models.StoreCreditAccountModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListTransactions lists a user's ledger entries, newest first
func (r *GormStoreCreditRepository) ListTransactions(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]storecredit.Transaction, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.StoreCreditTransactionModel{}).Where("user_id = ?", userID)
	if t, ok := filter.Filters["type"]; ok {
		base = base.Where("type = ?", t)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{})
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	var rows []models.StoreCreditTransactionModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]storecredit.Transaction, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// Apply runs fn against the user's account row while holding a row lock
// (SELECT ... FOR UPDATE), creating the account first when the user has none.
// The new balance and the ledger entry are written in the same transaction.
func (r *GormStoreCreditRepository) Apply(ctx context.Context, userID uuid.UUID, currency string, fn storecredit.LedgerFunc) (*storecredit.Account, *storecredit.Transaction, error) {
	var (
		account *storecredit.Account
		entry   *storecredit.Transaction
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := storecredit.NewAccount(userID, currency)
		if err != nil {
			return err
		}
		seed := &models.StoreCreditAccountModel{}
		seed.FromDomain(fresh)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(seed).Error; err != nil {
			return fmt.Errorf("failed to ensure store credit account: %w", err)
		}

		var locked models.StoreCreditAccountModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&locked).Error; err != nil {
			return fmt.Errorf("failed to lock store credit account: %w", err)
		}

		acc := locked.ToDomain()
		t, err := fn(acc)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.StoreCreditAccountModel{}).
			Where("id = ?", acc.ID).
			Updates(map[string]any{
				"current_balance": acc.CurrentBalance,
				"total_earned":    acc.TotalEarned,
				"total_spent":     acc.TotalSpent,
				"version":         locked.Version + 1,
				"updated_at":      acc.UpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update store credit balance: %w", err)
		}
		if t != nil {
			if err := tx.Create(models.StoreCreditTransactionModelFromDomain(t)).Error; err != nil {
				return fmt.Errorf("failed to append store credit transaction: %w", err)
			}
		}

		acc.Version = locked.Version + 1
		account, entry = acc, t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, entry, nil
}

// Ensure GormStoreCreditRepository implements storecredit.Repository
var _ storecredit.Repository = (*GormStoreCreditRepository)(nil)
