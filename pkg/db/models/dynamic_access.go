package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/scanlyhq/scanly-backend/pkg/enums"
)

// DynamicAccess is the paid entitlement row, one per user, written only by
// the billing webhook handler. CancelAtPeriodEnd and CurrentPeriodEnd are
// informational; only Status gates access.
type DynamicAccess struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID                `gorm:"column:user_id;type:uuid;not null;unique"`
	Status            enums.SubscriptionStatus `gorm:"column:status;not null"`
	SubscriptionID    string                   `gorm:"column:subscription_id;not null"`
	CurrentPeriodEnd  *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	Provider          string                   `gorm:"column:provider;not null;default:'polar'"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
