package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/scanlyhq/scanly-backend/pkg/enums"
)

// QRCode is one generated code. A row with a non-null TargetURL is
// redirect-style (dynamic); a null TargetURL means the content itself is
// served on resolution. Content and TargetURL hold ciphertext when
// Encrypted is true; rows created before encryption was introduced keep
// plaintext and Encrypted=false, and the resolver branches on the flag
// rather than guessing.
type QRCode struct {
	ID       uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShortID  string       `gorm:"column:short_id;not null;unique"`
	Name     string       `gorm:"column:name;not null"`
	Type     enums.QRType `gorm:"column:type;not null"`
	Content  string       `gorm:"column:content;not null"`
	TargetURL *string     `gorm:"column:target_url"`
	Encrypted bool        `gorm:"column:encrypted;not null;default:false"`
	IsActive  bool        `gorm:"column:is_active;not null;default:true"`

	// Presentation fields, opaque to the resolver.
	ForegroundColor string                `gorm:"column:foreground_color;not null;default:'#000000'"`
	BackgroundColor string                `gorm:"column:background_color;not null;default:'#ffffff'"`
	DotStyle        string                `gorm:"column:dot_style"`
	CornerStyle     string                `gorm:"column:corner_style"`
	Size            int                   `gorm:"column:size;not null;default:256"`
	LogoURL         *string               `gorm:"column:logo_url"`
	ErrorCorrection enums.ErrorCorrection `gorm:"column:error_correction;not null;default:'M'"`

	ScanCount int64     `gorm:"column:scan_count;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDynamic reports whether the code redirects on scan.
func (q *QRCode) IsDynamic() bool {
	return q != nil && q.TargetURL != nil && *q.TargetURL != ""
}
