package qrcodes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	"github.com/scanlyhq/scanly-backend/pkg/enums"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
)

type fakeQRRepo struct {
	byShortID    map[string]*models.QRCode
	byID         map[uuid.UUID]*models.QRCode
	owners       map[uuid.UUID]uuid.UUID
	failCreates  int
	deleteCalled bool
}

func newFakeQRRepo() *fakeQRRepo {
	return &fakeQRRepo{
		byShortID: map[string]*models.QRCode{},
		byID:      map[uuid.UUID]*models.QRCode{},
		owners:    map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeQRRepo) CreateWithOwner(_ context.Context, userID uuid.UUID, code *models.QRCode) (*models.QRCode, error) {
	if f.failCreates > 0 {
		f.failCreates--
		return nil, errors.New(`duplicate key value violates unique constraint "qr_codes_short_id_key"`)
	}
	if _, exists := f.byShortID[code.ShortID]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "qr_codes_short_id_key"`)
	}
	stored := *code
	stored.ID = uuid.New()
	f.byShortID[stored.ShortID] = &stored
	f.byID[stored.ID] = &stored
	f.owners[stored.ID] = userID
	return &stored, nil
}

func (f *fakeQRRepo) FindOwned(_ context.Context, userID, codeID uuid.UUID) (*models.QRCode, error) {
	row, ok := f.byID[codeID]
	if !ok || f.owners[codeID] != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeQRRepo) List(_ context.Context, opts listQuery) ([]models.QRCode, error) {
	var rows []models.QRCode
	for id, owner := range f.owners {
		if owner == opts.userID {
			rows = append(rows, *f.byID[id])
		}
	}
	return rows, nil
}

func (f *fakeQRRepo) Update(_ context.Context, code *models.QRCode) error {
	stored := *code
	f.byID[code.ID] = &stored
	f.byShortID[code.ShortID] = &stored
	return nil
}

func (f *fakeQRRepo) Delete(_ context.Context, _, codeID uuid.UUID) error {
	f.deleteCalled = true
	row := f.byID[codeID]
	if row != nil {
		delete(f.byShortID, row.ShortID)
	}
	delete(f.byID, codeID)
	delete(f.owners, codeID)
	return nil
}

// passthroughCipher marks values instead of encrypting so assertions can
// see both forms.
type passthroughCipher struct{}

func (passthroughCipher) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (passthroughCipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, "enc:") {
		return "", errors.New("not ciphertext")
	}
	return strings.TrimPrefix(stored, "enc:"), nil
}

type fakeAccess struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeAccess) HasDynamicAccess(context.Context, uuid.UUID) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

func newTestService(t *testing.T, repo *fakeQRRepo, access *fakeAccess) Service {
	t.Helper()
	svc, err := NewService(repo, passthroughCipher{}, access)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateStaticCodeSkipsAccessGate(t *testing.T) {
	repo := newFakeQRRepo()
	access := &fakeAccess{allowed: false}
	svc := newTestService(t, repo, access)

	view, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name: "site",
		Type: enums.QRTypeURL,
		Data: "example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if access.calls != 0 {
		t.Fatalf("static create should not consult the access gate, got %d calls", access.calls)
	}
	if view.Content != "https://example.com" {
		t.Fatalf("unexpected content %q", view.Content)
	}
	if len(view.ShortID) != shortIDLength {
		t.Fatalf("unexpected short id %q", view.ShortID)
	}

	stored := repo.byShortID[view.ShortID]
	if !stored.Encrypted {
		t.Fatal("stored row should be marked encrypted")
	}
	if stored.Content != "enc:https://example.com" {
		t.Fatalf("stored content should be ciphertext, got %q", stored.Content)
	}
}

func TestCreateDynamicCodeRequiresAccess(t *testing.T) {
	repo := newFakeQRRepo()
	svc := newTestService(t, repo, &fakeAccess{allowed: false})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Type:      enums.QRTypeURL,
		Data:      "example.com",
		TargetURL: "landing.example.com",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentRequired {
		t.Fatalf("expected payment required, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatal("nothing should be persisted when the gate denies")
	}
}

func TestCreateDynamicCodeEncryptsTarget(t *testing.T) {
	repo := newFakeQRRepo()
	svc := newTestService(t, repo, &fakeAccess{allowed: true})

	view, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Type:      enums.QRTypeURL,
		Data:      "example.com",
		TargetURL: "landing.example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.TargetURL == nil || *view.TargetURL != "https://landing.example.com" {
		t.Fatalf("unexpected target url %v", view.TargetURL)
	}

	stored := repo.byShortID[view.ShortID]
	if stored.TargetURL == nil || *stored.TargetURL != "enc:https://landing.example.com" {
		t.Fatalf("stored target should be ciphertext, got %v", stored.TargetURL)
	}
}

func TestCreateRetriesShortIDCollisions(t *testing.T) {
	repo := newFakeQRRepo()
	repo.failCreates = 3
	svc := newTestService(t, repo, &fakeAccess{})

	view, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Type: enums.QRTypeText,
		Data: "hello",
	})
	if err != nil {
		t.Fatalf("Create should survive collisions: %v", err)
	}
	if view.ShortID == "" {
		t.Fatal("expected a short id after retries")
	}
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	repo := newFakeQRRepo()
	repo.failCreates = shortIDAttempts
	svc := newTestService(t, repo, &fakeAccess{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Type: enums.QRTypeText,
		Data: "hello",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict after exhausting attempts, got %v", err)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := newTestService(t, newFakeQRRepo(), &fakeAccess{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Type: enums.QRType("barcode"),
		Data: "x",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetDecryptsForOwnerOnly(t *testing.T) {
	repo := newFakeQRRepo()
	svc := newTestService(t, repo, &fakeAccess{})
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateInput{
		Type: enums.QRTypeText,
		Data: "secret note",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	view, err := svc.Get(context.Background(), owner, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Content != "secret note" {
		t.Fatalf("expected decrypted content, got %q", view.Content)
	}

	_, err = svc.Get(context.Background(), uuid.New(), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("stranger should see not found, got %v", err)
	}
}

func TestUpdateTargetURLGatesAndEncrypts(t *testing.T) {
	repo := newFakeQRRepo()
	access := &fakeAccess{allowed: true}
	svc := newTestService(t, repo, access)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateInput{
		Type: enums.QRTypeURL,
		Data: "example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	target := "new.example.com"
	view, err := svc.Update(context.Background(), owner, created.ID, UpdateInput{TargetURL: &target})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if view.TargetURL == nil || *view.TargetURL != "https://new.example.com" {
		t.Fatalf("unexpected target %v", view.TargetURL)
	}

	access.allowed = false
	other := "blocked.example.com"
	_, err = svc.Update(context.Background(), owner, created.ID, UpdateInput{TargetURL: &other})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentRequired {
		t.Fatalf("expected payment required, got %v", err)
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	repo := newFakeQRRepo()
	svc := newTestService(t, repo, &fakeAccess{})
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateInput{
		Type: enums.QRTypeText,
		Data: "bye",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Delete(context.Background(), uuid.New(), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	if repo.deleteCalled {
		t.Fatal("repo delete should not run for a stranger")
	}

	if err := svc.Delete(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !repo.deleteCalled {
		t.Fatal("repo delete should run for the owner")
	}
}

func TestRenderImageProducesDataURL(t *testing.T) {
	repo := newFakeQRRepo()
	svc := newTestService(t, repo, &fakeAccess{})
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateInput{
		Type: enums.QRTypeURL,
		Data: "example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dataURL, err := svc.RenderImage(context.Background(), owner, created.ID, 128)
	if err != nil {
		t.Fatalf("RenderImage: %v", err)
	}
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Fatalf("unexpected data url prefix: %.40s", dataURL)
	}
}
