package qrcodes

import (
	"time"

	"github.com/google/uuid"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	"github.com/scanlyhq/scanly-backend/pkg/enums"
)

// CreateInput holds the fields required to create a code.
type CreateInput struct {
	Name            string
	Type            enums.QRType
	Data            string
	Aux             AuxData
	TargetURL       string
	ForegroundColor string
	BackgroundColor string
	DotStyle        string
	CornerStyle     string
	Size            int
	LogoURL         string
	ErrorCorrection enums.ErrorCorrection
}

// UpdateInput holds the mutable fields of an existing code. Nil pointers
// leave the current value untouched.
type UpdateInput struct {
	Name            *string
	TargetURL       *string
	IsActive        *bool
	ForegroundColor *string
	BackgroundColor *string
	DotStyle        *string
	CornerStyle     *string
	Size            *int
	LogoURL         *string
	ErrorCorrection *enums.ErrorCorrection
}

// ListParams scope and paginate the owner's codes.
type ListParams struct {
	UserID uuid.UUID
	Search string
	Limit  int
	Cursor string
}

// ListResult is one page of codes plus the cursor for the next page.
type ListResult struct {
	Items      []View
	NextCursor string
}

// View is a code with its payload fields decrypted for the owner.
type View struct {
	ID              uuid.UUID             `json:"id"`
	ShortID         string                `json:"shortId"`
	Name            string                `json:"name"`
	Type            enums.QRType          `json:"type"`
	Content         string                `json:"content"`
	TargetURL       *string               `json:"targetUrl,omitempty"`
	IsActive        bool                  `json:"isActive"`
	ForegroundColor string                `json:"foregroundColor"`
	BackgroundColor string                `json:"backgroundColor"`
	DotStyle        string                `json:"dotStyle,omitempty"`
	CornerStyle     string                `json:"cornerStyle,omitempty"`
	Size            int                   `json:"size"`
	LogoURL         *string               `json:"logoUrl,omitempty"`
	ErrorCorrection enums.ErrorCorrection `json:"errorCorrection"`
	ScanCount       int64                 `json:"scanCount"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func viewFromModel(row *models.QRCode, content string, targetURL *string) View {
	return View{
		ID:              row.ID,
		ShortID:         row.ShortID,
		Name:            row.Name,
		Type:            row.Type,
		Content:         content,
		TargetURL:       targetURL,
		IsActive:        row.IsActive,
		ForegroundColor: row.ForegroundColor,
		BackgroundColor: row.BackgroundColor,
		DotStyle:        row.DotStyle,
		CornerStyle:     row.CornerStyle,
		Size:            row.Size,
		LogoURL:         row.LogoURL,
		ErrorCorrection: row.ErrorCorrection,
		ScanCount:       row.ScanCount,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
