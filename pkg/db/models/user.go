package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a local account. Identity lives here rather than with a hosted
// provider so handlers receive an explicit principal.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email;not null;unique"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Name         string    `gorm:"column:name"`
	NumberOfQR   int       `gorm:"column:number_of_qr;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
