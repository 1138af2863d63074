package resolver

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
	"github.com/scanlyhq/scanly-backend/pkg/metrics"
)

type qrRepository interface {
	FindByShortID(ctx context.Context, shortID string) (*models.QRCode, error)
	IncrementScanCount(ctx context.Context, codeID uuid.UUID) error
}

type scanRepository interface {
	Create(ctx context.Context, scan *models.Scan) error
}

type payloadCipher interface {
	Decrypt(stored string) (string, error)
}

// Resolution is the outcome of a public scan. Exactly one of TargetURL or
// Content is populated.
type Resolution struct {
	Redirect  bool
	TargetURL string
	Content   string
}

// LegacyResolution is the shape of the older short-code redirect API.
type LegacyResolution struct {
	DestinationURL string `json:"destinationUrl"`
	Name           string `json:"name"`
	ShortCode      string `json:"shortCode"`
}

// Service resolves public short identifiers into redirects or content.
type Service interface {
	Resolve(ctx context.Context, shortID string, scan *models.Scan) (*Resolution, error)
	ResolveShortCode(ctx context.Context, shortCode string, scan *models.Scan) (*LegacyResolution, error)
}

type service struct {
	qrRepo   qrRepository
	scanRepo scanRepository
	cipher   payloadCipher
	log      *logger.Logger
	metrics  *metrics.ResolverMetrics
}

// NewService builds the resolver service.
func NewService(qrRepo qrRepository, scanRepo scanRepository, cipher payloadCipher, log *logger.Logger, m *metrics.ResolverMetrics) (Service, error) {
	if qrRepo == nil {
		return nil, fmt.Errorf("qr repository required")
	}
	if scanRepo == nil {
		return nil, fmt.Errorf("scan repository required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("payload cipher required")
	}
	return &service{qrRepo: qrRepo, scanRepo: scanRepo, cipher: cipher, log: log, metrics: m}, nil
}

// Resolve looks up an active code, records the scan, and returns either a
// redirect target or displayable content. Absent or inactive codes 404
// before any scan row is written. Scan recording is best effort: a failed
// insert or counter bump never blocks the resolution. A decrypt failure
// is fatal; serving ciphertext or a wrong redirect is worse than a 500.
func (s *service) Resolve(ctx context.Context, shortID string, scan *models.Scan) (*Resolution, error) {
	row, err := s.lookupActive(ctx, shortID)
	if err != nil {
		return nil, err
	}

	s.recordScan(ctx, row, scan)

	if row.IsDynamic() {
		target := *row.TargetURL
		if row.Encrypted {
			target, err = s.cipher.Decrypt(target)
			if err != nil {
				s.metrics.IncResolution("decrypt_error")
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt target url")
			}
		}
		s.metrics.IncResolution("redirect")
		return &Resolution{Redirect: true, TargetURL: target}, nil
	}

	content := row.Content
	if row.Encrypted {
		content, err = s.cipher.Decrypt(content)
		if err != nil {
			s.metrics.IncResolution("decrypt_error")
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt content")
		}
	}
	s.metrics.IncResolution("content")
	return &Resolution{Content: content}, nil
}

// ResolveShortCode serves the older client-side redirect API: it returns
// the destination as JSON instead of issuing an HTTP redirect.
func (s *service) ResolveShortCode(ctx context.Context, shortCode string, scan *models.Scan) (*LegacyResolution, error) {
	row, err := s.lookupActive(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	s.recordScan(ctx, row, scan)

	destination := row.Content
	if row.IsDynamic() {
		destination = *row.TargetURL
	}
	if row.Encrypted {
		destination, err = s.cipher.Decrypt(destination)
		if err != nil {
			s.metrics.IncResolution("decrypt_error")
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt destination")
		}
	}

	s.metrics.IncResolution("legacy")
	return &LegacyResolution{
		DestinationURL: destination,
		Name:           row.Name,
		ShortCode:      row.ShortID,
	}, nil
}

func (s *service) lookupActive(ctx context.Context, shortID string) (*models.QRCode, error) {
	if shortID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "short id is required")
	}

	row, err := s.qrRepo.FindByShortID(ctx, shortID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncResolution("not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup qr code")
	}
	if !row.IsActive {
		s.metrics.IncResolution("inactive")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	return row, nil
}

func (s *service) recordScan(ctx context.Context, row *models.QRCode, scan *models.Scan) {
	if scan == nil {
		return
	}
	scan.QRCodeID = row.ID

	if err := s.scanRepo.Create(ctx, scan); err != nil {
		if s.log != nil {
			s.log.Warn(s.log.WithShortID(ctx, row.ShortID), "recording scan failed: "+err.Error())
		}
		return
	}
	if err := s.qrRepo.IncrementScanCount(ctx, row.ID); err != nil && s.log != nil {
		s.log.Warn(s.log.WithShortID(ctx, row.ShortID), "incrementing scan count failed: "+err.Error())
	}
}
