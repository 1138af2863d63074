package scans

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
)

// Repository exposes scan persistence. Scan rows are insert-only.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a scan repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts one scan row.
func (r *Repository) Create(ctx context.Context, scan *models.Scan) error {
	return r.db.WithContext(ctx).Create(scan).Error
}

// CountByCode returns the full-history scan total for a code.
func (r *Repository) CountByCode(ctx context.Context, codeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Scan{}).
		Where("qr_code_id = ?", codeID).
		Count(&count).Error
	return count, err
}

// RecentByCode returns scans newer than since, newest first, capped at limit.
func (r *Repository) RecentByCode(ctx context.Context, codeID uuid.UUID, since time.Time, limit int) ([]models.Scan, error) {
	var rows []models.Scan
	err := r.db.WithContext(ctx).
		Where("qr_code_id = ? AND scanned_at >= ?", codeID, since).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FieldCount is one bucket of a grouped aggregate.
type FieldCount struct {
	Name  string
	Count int64
}

// CountByField groups full-history scans by the given column. The column
// name is restricted to the known classification fields.
func (r *Repository) CountByField(ctx context.Context, codeID uuid.UUID, field string) ([]FieldCount, error) {
	switch field {
	case "device", "browser", "os":
	default:
		return nil, gorm.ErrInvalidField
	}

	var rows []FieldCount
	err := r.db.WithContext(ctx).
		Model(&models.Scan{}).
		Select(field+" AS name, COUNT(*) AS count").
		Where("qr_code_id = ?", codeID).
		Group(field).
		Order("count DESC").
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// FromRequest builds a scan row from the incoming HTTP request. The client
// IP prefers the first X-Forwarded-For hop, then X-Real-Ip, then the
// loopback placeholder the legacy data used.
func FromRequest(codeID uuid.UUID, r *http.Request) *models.Scan {
	userAgent := r.UserAgent()
	classification := Classify(userAgent)

	ip := "127.0.0.1"
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	} else if real := r.Header.Get("X-Real-Ip"); real != "" {
		ip = strings.TrimSpace(real)
	}

	return &models.Scan{
		QRCodeID:  codeID,
		UserAgent: userAgent,
		IPAddress: ip,
		Device:    classification.Device,
		Browser:   classification.Browser,
		OS:        classification.OS,
		Country:   "Unknown",
		City:      "Unknown",
	}
}
