package qrcodes

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db"
	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
	"github.com/scanlyhq/scanly-backend/pkg/pagination"
	"github.com/scanlyhq/scanly-backend/pkg/qrimage"
)

const (
	shortIDLength   = 6
	shortIDAttempts = 10
	shortIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type qrRepository interface {
	CreateWithOwner(ctx context.Context, userID uuid.UUID, code *models.QRCode) (*models.QRCode, error)
	FindOwned(ctx context.Context, userID, codeID uuid.UUID) (*models.QRCode, error)
	List(ctx context.Context, opts listQuery) ([]models.QRCode, error)
	Update(ctx context.Context, code *models.QRCode) error
	Delete(ctx context.Context, userID, codeID uuid.UUID) error
}

type payloadCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(stored string) (string, error)
}

type accessChecker interface {
	HasDynamicAccess(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Service exposes owner-scoped QR code management.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*View, error)
	Get(ctx context.Context, userID, codeID uuid.UUID) (*View, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, userID, codeID uuid.UUID, input UpdateInput) (*View, error)
	Delete(ctx context.Context, userID, codeID uuid.UUID) error
	RenderImage(ctx context.Context, userID, codeID uuid.UUID, size int) (string, error)
}

type service struct {
	repo   qrRepository
	cipher payloadCipher
	access accessChecker
}

// NewService builds the QR code service.
func NewService(repo qrRepository, cipher payloadCipher, access accessChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("qr repository required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("payload cipher required")
	}
	if access == nil {
		return nil, fmt.Errorf("access checker required")
	}
	return &service{repo: repo, cipher: cipher, access: access}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid qr type")
	}
	if strings.TrimSpace(input.Data) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "data is required")
	}

	targetURL := strings.TrimSpace(input.TargetURL)
	if targetURL != "" {
		ok, err := s.access.HasDynamicAccess(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check dynamic access")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "dynamic codes require an active subscription")
		}
	}

	plainContent, err := FormatPayload(input.Type, input.Data, input.Aux)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "format payload")
	}

	encContent, err := s.cipher.Encrypt(plainContent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt content")
	}

	var encTarget *string
	var plainTarget *string
	if targetURL != "" {
		normalized := targetURL
		if !strings.HasPrefix(normalized, "http") {
			normalized = "https://" + normalized
		}
		enc, err := s.cipher.Encrypt(normalized)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt target url")
		}
		encTarget = &enc
		plainTarget = &normalized
	}

	errorCorrection := input.ErrorCorrection
	if !errorCorrection.IsValid() {
		errorCorrection = "M"
	}

	code := &models.QRCode{
		Name:            strings.TrimSpace(input.Name),
		Type:            input.Type,
		Content:         encContent,
		TargetURL:       encTarget,
		Encrypted:       true,
		IsActive:        true,
		ForegroundColor: defaultString(input.ForegroundColor, "#000000"),
		BackgroundColor: defaultString(input.BackgroundColor, "#ffffff"),
		DotStyle:        input.DotStyle,
		CornerStyle:     input.CornerStyle,
		Size:            input.Size,
		ErrorCorrection: errorCorrection,
	}
	if input.LogoURL != "" {
		logo := input.LogoURL
		code.LogoURL = &logo
	}
	if code.Size <= 0 {
		code.Size = 256
	}

	created, err := s.createWithFreshShortID(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	view := viewFromModel(created, plainContent, plainTarget)
	return &view, nil
}

// createWithFreshShortID retries on short-id collisions; the unique
// constraint is the arbiter, not an existence pre-check.
func (s *service) createWithFreshShortID(ctx context.Context, userID uuid.UUID, code *models.QRCode) (*models.QRCode, error) {
	for attempt := 0; attempt < shortIDAttempts; attempt++ {
		shortID, err := generateShortID()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate short id")
		}
		code.ShortID = shortID
		code.ID = uuid.Nil

		created, err := s.repo.CreateWithOwner(ctx, userID, code)
		if err == nil {
			return created, nil
		}
		if db.IsUniqueViolation(err, "") {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create qr code")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique short id")
}

func (s *service) Get(ctx context.Context, userID, codeID uuid.UUID) (*View, error) {
	row, err := s.findOwned(ctx, userID, codeID)
	if err != nil {
		return nil, err
	}
	view, err := s.decryptView(row)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, listQuery{
		userID: params.UserID,
		search: strings.TrimSpace(params.Search),
		cursor: cursor,
		limit:  limit + 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list qr codes")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items := make([]View, 0, len(rows))
	for i := range rows {
		view, err := s.decryptView(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *view)
	}
	return &ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, userID, codeID uuid.UUID, input UpdateInput) (*View, error) {
	row, err := s.findOwned(ctx, userID, codeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		row.Name = strings.TrimSpace(*input.Name)
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	if input.TargetURL != nil {
		target := strings.TrimSpace(*input.TargetURL)
		if target == "" {
			row.TargetURL = nil
		} else {
			ok, err := s.access.HasDynamicAccess(ctx, userID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check dynamic access")
			}
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "dynamic codes require an active subscription")
			}
			if !strings.HasPrefix(target, "http") {
				target = "https://" + target
			}
			enc, err := s.cipher.Encrypt(target)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt target url")
			}
			row.TargetURL = &enc
			if !row.Encrypted {
				// mixed plaintext/ciphertext rows are not representable;
				// re-encrypt the legacy content alongside the new target.
				encContent, err := s.cipher.Encrypt(row.Content)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt content")
				}
				row.Content = encContent
				row.Encrypted = true
			}
		}
	}
	if input.ForegroundColor != nil {
		row.ForegroundColor = *input.ForegroundColor
	}
	if input.BackgroundColor != nil {
		row.BackgroundColor = *input.BackgroundColor
	}
	if input.DotStyle != nil {
		row.DotStyle = *input.DotStyle
	}
	if input.CornerStyle != nil {
		row.CornerStyle = *input.CornerStyle
	}
	if input.Size != nil && *input.Size > 0 {
		row.Size = *input.Size
	}
	if input.LogoURL != nil {
		if *input.LogoURL == "" {
			row.LogoURL = nil
		} else {
			logo := *input.LogoURL
			row.LogoURL = &logo
		}
	}
	if input.ErrorCorrection != nil {
		if !input.ErrorCorrection.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid error correction level")
		}
		row.ErrorCorrection = *input.ErrorCorrection
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update qr code")
	}
	return s.decryptView(row)
}

func (s *service) Delete(ctx context.Context, userID, codeID uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, codeID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, codeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete qr code")
	}
	return nil
}

func (s *service) RenderImage(ctx context.Context, userID, codeID uuid.UUID, size int) (string, error) {
	row, err := s.findOwned(ctx, userID, codeID)
	if err != nil {
		return "", err
	}
	view, err := s.decryptView(row)
	if err != nil {
		return "", err
	}

	if size <= 0 {
		size = row.Size
	}
	dataURL, err := qrimage.RenderDataURL(view.Content, qrimage.Options{
		Size:            size,
		ErrorCorrection: row.ErrorCorrection,
		ForegroundColor: row.ForegroundColor,
		BackgroundColor: row.BackgroundColor,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr image")
	}
	return dataURL, nil
}

func (s *service) findOwned(ctx context.Context, userID, codeID uuid.UUID) (*models.QRCode, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if codeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr code id is required")
	}
	row, err := s.repo.FindOwned(ctx, userID, codeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup qr code")
	}
	return row, nil
}

func (s *service) decryptView(row *models.QRCode) (*View, error) {
	content := row.Content
	targetURL := row.TargetURL

	if row.Encrypted {
		decrypted, err := s.cipher.Decrypt(row.Content)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt content")
		}
		content = decrypted

		if row.TargetURL != nil && *row.TargetURL != "" {
			decryptedTarget, err := s.cipher.Decrypt(*row.TargetURL)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt target url")
			}
			targetURL = &decryptedTarget
		}
	}

	view := viewFromModel(row, content, targetURL)
	return &view, nil
}

func generateShortID() (string, error) {
	buf := make([]byte, shortIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, shortIDLength)
	for i, b := range buf {
		out[i] = shortIDAlphabet[int(b)%len(shortIDAlphabet)]
	}
	return string(out), nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
