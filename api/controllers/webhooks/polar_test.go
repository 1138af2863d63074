package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	polarwebhook "github.com/scanlyhq/scanly-backend/internal/webhooks/polar"
	"github.com/google/uuid"
)

const testWebhookSecret = "whsec_dGVzdC1zaWduaW5nLXNlY3JldA=="

func TestPolarWebhook_SuccessAndIdempotent(t *testing.T) {
	payload := []byte(`{"type":"subscription.active","data":{"metadata":{"userId":"` + uuid.NewString() + `"},"subscription":{"id":"sub_1","status":"active"}}}`)
	deliveryID := "wh_" + uuid.NewString()

	service := &fakePolarWebhookService{}
	store := newInMemoryStore()
	guard, err := polarwebhook.NewIdempotencyGuard(store, time.Minute, "polar-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PolarWebhook(service, &fakeSecretClient{secret: testWebhookSecret}, guard, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload, deliveryID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	// Redeliver the same webhook id
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, signedRequest(t, payload, deliveryID))
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected redelivery not processed, call count %d", service.calls)
	}
}

func TestPolarWebhook_InvalidSignature(t *testing.T) {
	payload := []byte(`{"type":"subscription.active","data":{}}`)
	service := &fakePolarWebhookService{}
	store := newInMemoryStore()
	guard, err := polarwebhook.NewIdempotencyGuard(store, time.Minute, "polar-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PolarWebhook(service, &fakeSecretClient{secret: testWebhookSecret}, guard, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/polar", bytes.NewReader(payload))
	req.Header.Set("webhook-id", "wh_bad")
	req.Header.Set("webhook-timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	req.Header.Set("webhook-signature", "v1,bm90LWEtcmVhbC1zaWduYXR1cmU=")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestPolarWebhook_HandlerFailureClearsMarker(t *testing.T) {
	payload := []byte(`{"type":"order.paid","data":{"metadata":{"userId":"` + uuid.NewString() + `"},"id":"inv_1","amount":900}}`)
	deliveryID := "wh_" + uuid.NewString()

	service := &fakePolarWebhookService{failFirst: true}
	store := newInMemoryStore()
	guard, err := polarwebhook.NewIdempotencyGuard(store, time.Minute, "polar-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PolarWebhook(service, &fakeSecretClient{secret: testWebhookSecret}, guard, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload, deliveryID))
	if rec.Code == http.StatusOK {
		t.Fatalf("expected failure status, got 200")
	}

	// Marker was cleared, so the retry reaches the handler again.
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, signedRequest(t, payload, deliveryID))
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 2 {
		t.Fatalf("expected retry to reach handler, call count %d", service.calls)
	}
}

func signedRequest(t *testing.T, payload []byte, deliveryID string) *http.Request {
	t.Helper()
	ts := time.Now().Unix()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/polar", bytes.NewReader(payload))
	req.Header.Set("webhook-id", deliveryID)
	req.Header.Set("webhook-timestamp", fmt.Sprintf("%d", ts))
	req.Header.Set("webhook-signature", buildSignature(t, payload, deliveryID, ts))
	return req
}

func buildSignature(t *testing.T, payload []byte, deliveryID string, ts int64) string {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(testWebhookSecret[len("whsec_"):])
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%d.%s", deliveryID, ts, payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type fakePolarWebhookService struct {
	calls     int
	failFirst bool
}

func (f *fakePolarWebhookService) HandleEvent(ctx context.Context, event *polarwebhook.Event) error {
	f.calls++
	if f.failFirst && f.calls == 1 {
		return fmt.Errorf("transient failure")
	}
	return nil
}

type fakeSecretClient struct {
	secret string
}

func (c *fakeSecretClient) WebhookSecret() string {
	return c.secret
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("scanly:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
