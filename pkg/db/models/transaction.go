package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction records one paid invoice. InvoiceID is unique so a replayed
// webhook delivery cannot insert a second row.
type Transaction struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	InvoiceID   string    `gorm:"column:invoice_id;not null;unique"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	Status      string    `gorm:"column:status;not null"`
	PaymentDate time.Time `gorm:"column:payment_date;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
