package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
)

type fakeQRRepo struct {
	byShortID  map[string]*models.QRCode
	increments map[uuid.UUID]int
	lookupErr  error
	incErr     error
}

func newFakeQRRepo(rows ...*models.QRCode) *fakeQRRepo {
	f := &fakeQRRepo{byShortID: map[string]*models.QRCode{}, increments: map[uuid.UUID]int{}}
	for _, row := range rows {
		f.byShortID[row.ShortID] = row
	}
	return f
}

func (f *fakeQRRepo) FindByShortID(_ context.Context, shortID string) (*models.QRCode, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	row, ok := f.byShortID[shortID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeQRRepo) IncrementScanCount(_ context.Context, codeID uuid.UUID) error {
	if f.incErr != nil {
		return f.incErr
	}
	f.increments[codeID]++
	return nil
}

type fakeScanRepo struct {
	created []*models.Scan
	err     error
}

func (f *fakeScanRepo) Create(_ context.Context, scan *models.Scan) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, scan)
	return nil
}

type prefixCipher struct{}

func (prefixCipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, "enc:") {
		return "", errors.New("not ciphertext")
	}
	return strings.TrimPrefix(stored, "enc:"), nil
}

func strPtr(v string) *string { return &v }

func newResolver(t *testing.T, qrRepo *fakeQRRepo, scanRepo *fakeScanRepo) Service {
	t.Helper()
	svc, err := NewService(qrRepo, scanRepo, prefixCipher{}, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestResolveUnknownShortIDIsNotFoundAndRecordsNothing(t *testing.T) {
	qrRepo := newFakeQRRepo()
	scanRepo := &fakeScanRepo{}
	svc := newResolver(t, qrRepo, scanRepo)

	_, err := svc.Resolve(context.Background(), "ghost1", &models.Scan{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(scanRepo.created) != 0 {
		t.Fatal("no scan row should be written for an unknown code")
	}
}

func TestResolveInactiveCodeIsNotFound(t *testing.T) {
	row := &models.QRCode{ID: uuid.New(), ShortID: "dead01", IsActive: false, Content: "enc:hello", Encrypted: true}
	scanRepo := &fakeScanRepo{}
	svc := newResolver(t, newFakeQRRepo(row), scanRepo)

	_, err := svc.Resolve(context.Background(), "dead01", &models.Scan{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive code, got %v", err)
	}
	if len(scanRepo.created) != 0 {
		t.Fatal("no scan row should be written for an inactive code")
	}
}

func TestResolveDynamicCodeRedirectsAndRecords(t *testing.T) {
	row := &models.QRCode{
		ID:        uuid.New(),
		ShortID:   "live01",
		IsActive:  true,
		Encrypted: true,
		Content:   "enc:https://example.com",
		TargetURL: strPtr("enc:https://landing.example.com"),
	}
	qrRepo := newFakeQRRepo(row)
	scanRepo := &fakeScanRepo{}
	svc := newResolver(t, qrRepo, scanRepo)

	res, err := svc.Resolve(context.Background(), "live01", &models.Scan{UserAgent: "test"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Redirect || res.TargetURL != "https://landing.example.com" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if len(scanRepo.created) != 1 || scanRepo.created[0].QRCodeID != row.ID {
		t.Fatalf("scan should be attributed to the code, got %+v", scanRepo.created)
	}
	if qrRepo.increments[row.ID] != 1 {
		t.Fatalf("scan count should increment once, got %d", qrRepo.increments[row.ID])
	}
}

func TestResolveStaticCodeReturnsContent(t *testing.T) {
	row := &models.QRCode{ID: uuid.New(), ShortID: "stat01", IsActive: true, Encrypted: true, Content: "enc:WIFI:T:WPA;S:MyNet;P:secret;H:false;;"}
	svc := newResolver(t, newFakeQRRepo(row), &fakeScanRepo{})

	res, err := svc.Resolve(context.Background(), "stat01", &models.Scan{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Redirect {
		t.Fatal("static code should not redirect")
	}
	if res.Content != "WIFI:T:WPA;S:MyNet;P:secret;H:false;;" {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestResolveLegacyPlaintextRowPassesThrough(t *testing.T) {
	row := &models.QRCode{ID: uuid.New(), ShortID: "old001", IsActive: true, Encrypted: false, Content: "https://plain.example.com"}
	svc := newResolver(t, newFakeQRRepo(row), &fakeScanRepo{})

	res, err := svc.Resolve(context.Background(), "old001", &models.Scan{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Content != "https://plain.example.com" {
		t.Fatalf("plaintext row should pass through, got %q", res.Content)
	}
}

func TestResolveScanFailureDoesNotBlock(t *testing.T) {
	row := &models.QRCode{ID: uuid.New(), ShortID: "live02", IsActive: true, Encrypted: true, Content: "enc:hello"}
	qrRepo := newFakeQRRepo(row)
	scanRepo := &fakeScanRepo{err: errors.New("insert failed")}
	svc := newResolver(t, qrRepo, scanRepo)

	res, err := svc.Resolve(context.Background(), "live02", &models.Scan{})
	if err != nil {
		t.Fatalf("Resolve should survive scan failures: %v", err)
	}
	if res.Content != "hello" {
		t.Fatalf("unexpected content %q", res.Content)
	}
	if qrRepo.increments[row.ID] != 0 {
		t.Fatal("count should not increment when the scan insert failed")
	}
}

func TestResolveDecryptFailureIsFatal(t *testing.T) {
	row := &models.QRCode{ID: uuid.New(), ShortID: "bad001", IsActive: true, Encrypted: true, Content: "garbage-not-ciphertext"}
	svc := newResolver(t, newFakeQRRepo(row), &fakeScanRepo{})

	_, err := svc.Resolve(context.Background(), "bad001", &models.Scan{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error on decrypt failure, got %v", err)
	}
}

func TestResolveShortCodeReturnsLegacyShape(t *testing.T) {
	row := &models.QRCode{
		ID:        uuid.New(),
		ShortID:   "leg001",
		Name:      "campaign",
		IsActive:  true,
		Encrypted: true,
		Content:   "enc:https://example.com",
		TargetURL: strPtr("enc:https://dest.example.com"),
	}
	qrRepo := newFakeQRRepo(row)
	svc := newResolver(t, qrRepo, &fakeScanRepo{})

	res, err := svc.ResolveShortCode(context.Background(), "leg001", &models.Scan{})
	if err != nil {
		t.Fatalf("ResolveShortCode: %v", err)
	}
	if res.DestinationURL != "https://dest.example.com" {
		t.Fatalf("unexpected destination %q", res.DestinationURL)
	}
	if res.Name != "campaign" || res.ShortCode != "leg001" {
		t.Fatalf("unexpected legacy fields %+v", res)
	}
	if qrRepo.increments[row.ID] != 1 {
		t.Fatal("legacy resolution should also count the scan")
	}
}

func TestResolveNilScanSkipsRecording(t *testing.T) {
	row := &models.QRCode{ID: uuid.New(), ShortID: "nos001", IsActive: true, Content: "plain", Encrypted: false}
	qrRepo := newFakeQRRepo(row)
	scanRepo := &fakeScanRepo{}
	svc := newResolver(t, qrRepo, scanRepo)

	if _, err := svc.Resolve(context.Background(), "nos001", nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(scanRepo.created) != 0 || qrRepo.increments[row.ID] != 0 {
		t.Fatal("nil scan should skip recording entirely")
	}
}
