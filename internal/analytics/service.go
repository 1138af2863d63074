package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/internal/scans"
	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
)

const (
	// recentWindow bounds the per-day chart and the recent counter.
	recentWindow = 30 * 24 * time.Hour
	// recentCap bounds how many window rows feed the chart.
	recentCap = 100
)

type qrRepository interface {
	FindOwned(ctx context.Context, userID, codeID uuid.UUID) (*models.QRCode, error)
}

type scanRepository interface {
	CountByCode(ctx context.Context, codeID uuid.UUID) (int64, error)
	RecentByCode(ctx context.Context, codeID uuid.UUID, since time.Time, limit int) ([]models.Scan, error)
	CountByField(ctx context.Context, codeID uuid.UUID, field string) ([]scans.FieldCount, error)
}

// Stat is one named bucket of a breakdown.
type Stat struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Summary is the per-code analytics payload. TotalScans covers full
// history; RecentScans and ScansByDate cover only the trailing window
// (capped), while the device/browser breakdowns again cover full history.
// The mismatch is deliberate: it mirrors what the dashboard charts expect.
type Summary struct {
	TotalScans   int64            `json:"totalScans"`
	RecentScans  int              `json:"recentScans"`
	ScansByDate  map[string]int64 `json:"scansByDate"`
	DeviceStats  []Stat           `json:"deviceStats"`
	BrowserStats []Stat           `json:"browserStats"`
}

// Service exposes owner-scoped scan analytics.
type Service interface {
	Summarize(ctx context.Context, userID, codeID uuid.UUID) (*Summary, error)
}

type service struct {
	qrRepo   qrRepository
	scanRepo scanRepository
	now      func() time.Time
}

// NewService builds the analytics service.
func NewService(qrRepo qrRepository, scanRepo scanRepository) (Service, error) {
	if qrRepo == nil {
		return nil, fmt.Errorf("qr repository required")
	}
	if scanRepo == nil {
		return nil, fmt.Errorf("scan repository required")
	}
	return &service{qrRepo: qrRepo, scanRepo: scanRepo, now: time.Now}, nil
}

func (s *service) Summarize(ctx context.Context, userID, codeID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	if _, err := s.qrRepo.FindOwned(ctx, userID, codeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup qr code")
	}

	total, err := s.scanRepo.CountByCode(ctx, codeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count scans")
	}

	since := s.now().Add(-recentWindow)
	recent, err := s.scanRepo.RecentByCode(ctx, codeID, since, recentCap)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent scans")
	}

	scansByDate := make(map[string]int64, len(recent))
	for _, scan := range recent {
		day := scan.ScannedAt.UTC().Format("2006-01-02")
		scansByDate[day]++
	}

	deviceStats, err := s.breakdown(ctx, codeID, "device")
	if err != nil {
		return nil, err
	}
	browserStats, err := s.breakdown(ctx, codeID, "browser")
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalScans:   total,
		RecentScans:  len(recent),
		ScansByDate:  scansByDate,
		DeviceStats:  deviceStats,
		BrowserStats: browserStats,
	}, nil
}

func (s *service) breakdown(ctx context.Context, codeID uuid.UUID, field string) ([]Stat, error) {
	counts, err := s.scanRepo.CountByField(ctx, codeID, field)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "group scans by "+field)
	}
	stats := make([]Stat, 0, len(counts))
	for _, c := range counts {
		stats = append(stats, Stat{Name: c.Name, Value: c.Count})
	}
	return stats, nil
}
