package qrcodes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	"github.com/scanlyhq/scanly-backend/pkg/pagination"
)

// Repository exposes QR code persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a QR code repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type listQuery struct {
	userID uuid.UUID
	search string
	cursor *pagination.Cursor
	limit  int
}

// CreateWithOwner inserts the code and its ownership link in one
// transaction and bumps the owner's denormalized counter.
func (r *Repository) CreateWithOwner(ctx context.Context, userID uuid.UUID, code *models.QRCode) (*models.QRCode, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(code).Error; err != nil {
			return err
		}
		link := &models.UserQRCode{UserID: userID, QRCodeID: code.ID}
		if err := tx.Create(link).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("number_of_qr", gorm.Expr("number_of_qr + ?", 1)).
			Error
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

// FindByShortID loads a code by its public short identifier.
func (r *Repository) FindByShortID(ctx context.Context, shortID string) (*models.QRCode, error) {
	var row models.QRCode
	if err := r.db.WithContext(ctx).First(&row, "short_id = ?", shortID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindOwned loads a code only if the user owns it.
func (r *Repository) FindOwned(ctx context.Context, userID, codeID uuid.UUID) (*models.QRCode, error) {
	var row models.QRCode
	err := r.db.WithContext(ctx).
		Joins("JOIN user_qr_codes ON user_qr_codes.qr_code_id = qr_codes.id").
		Where("user_qr_codes.user_id = ? AND qr_codes.id = ?", userID, codeID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns user-scoped codes using cursor pagination, optionally
// filtered by a case-insensitive name match.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.QRCode, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QRCode{}).
		Joins("JOIN user_qr_codes ON user_qr_codes.qr_code_id = qr_codes.id").
		Where("user_qr_codes.user_id = ?", opts.userID)

	if opts.search != "" {
		query = query.Where("qr_codes.name LIKE ?", "%"+opts.search+"%")
	}
	if opts.cursor != nil {
		query = query.Where("(qr_codes.created_at < ?) OR (qr_codes.created_at = ? AND qr_codes.id < ?)",
			opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("qr_codes.created_at DESC").Order("qr_codes.id DESC").Limit(opts.limit)

	var rows []models.QRCode
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists mutable code fields.
func (r *Repository) Update(ctx context.Context, code *models.QRCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

// Delete removes the code, its ownership link, and its scan history, and
// decrements the owner's counter.
func (r *Repository) Delete(ctx context.Context, userID, codeID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("qr_code_id = ?", codeID).Delete(&models.Scan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND qr_code_id = ?", userID, codeID).Delete(&models.UserQRCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", codeID).Delete(&models.QRCode{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND number_of_qr > 0", userID).
			UpdateColumn("number_of_qr", gorm.Expr("number_of_qr - ?", 1)).
			Error
	})
}

// IncrementScanCount bumps the denormalized counter atomically in the
// store so concurrent scans never lose updates.
func (r *Repository) IncrementScanCount(ctx context.Context, codeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.QRCode{}).
		Where("id = ?", codeID).
		UpdateColumn("scan_count", gorm.Expr("scan_count + ?", 1)).
		Error
}
