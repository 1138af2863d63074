package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
)

// Repository exposes entitlement and payment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a billing repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAccessByUser loads the single entitlement row for a user.
func (r *Repository) FindAccessByUser(ctx context.Context, userID uuid.UUID) (*models.DynamicAccess, error) {
	var row models.DynamicAccess
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertAccess creates or replaces the entitlement row keyed by user_id.
func (r *Repository) UpsertAccess(ctx context.Context, access *models.DynamicAccess) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "subscription_id", "current_period_end", "cancel_at_period_end", "provider", "updated_at",
			}),
		}).
		Create(access).Error
}

// FindTransactionByInvoice loads a payment row by provider invoice id.
func (r *Repository) FindTransactionByInvoice(ctx context.Context, invoiceID string) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).First(&row, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateTransaction inserts a payment row. The invoice_id unique
// constraint rejects webhook replays.
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListTransactionsByUser returns the user's payments, newest first.
func (r *Repository) ListTransactionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("payment_date DESC").
		Find(&rows).Error
	return rows, err
}
