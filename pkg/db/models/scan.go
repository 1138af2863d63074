package models

import (
	"time"

	"github.com/google/uuid"
)

// Scan is one resolution event. Rows are insert-only; the device, browser,
// and os classification is computed once at insert time and never
// recomputed if the classification rules change later.
type Scan struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QRCodeID  uuid.UUID `gorm:"column:qr_code_id;type:uuid;not null;index"`
	ScannedAt time.Time `gorm:"column:scanned_at;autoCreateTime;index"`
	UserAgent string    `gorm:"column:user_agent"`
	IPAddress string    `gorm:"column:ip_address"`
	Device    string    `gorm:"column:device;not null"`
	Browser   string    `gorm:"column:browser;not null"`
	OS        string    `gorm:"column:os;not null"`
	Country   string    `gorm:"column:country;not null;default:'Unknown'"`
	City      string    `gorm:"column:city;not null;default:'Unknown'"`
}
