package models

import (
	"time"

	"github.com/google/uuid"
)

// UserQRCode links an account to a code it may manage. The (user_id,
// qr_code_id) pair is unique; "my codes" queries are scoped through this
// table.
type UserQRCode struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_qr_codes_pair"`
	QRCodeID  uuid.UUID `gorm:"column:qr_code_id;type:uuid;not null;uniqueIndex:idx_user_qr_codes_pair"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
