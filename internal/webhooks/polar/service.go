package polarwebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	"github.com/scanlyhq/scanly-backend/pkg/enums"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

type billingRepository interface {
	UpsertAccess(ctx context.Context, access *models.DynamicAccess) error
	FindTransactionByInvoice(ctx context.Context, invoiceID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
}

// Service applies verified Polar webhook events to billing state.
type Service interface {
	HandleEvent(ctx context.Context, event *Event) error
}

type service struct {
	repo billingRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewService builds the webhook service.
func NewService(repo billingRepository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	return &service{repo: repo, log: log, now: time.Now}, nil
}

// HandleEvent mutates billing state for the event. Deliveries without a
// resolvable user are acknowledged as no-ops; failing them would only
// make the provider retry a payload that can never be applied.
func (s *service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}

	data, err := event.data()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event data")
	}

	rawUserID := data.userID()
	if rawUserID == "" {
		s.warn(ctx, "webhook without user reference, ignoring: "+event.Type)
		return nil
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		s.warn(ctx, "webhook with malformed user reference, ignoring: "+event.Type)
		return nil
	}

	if strings.Contains(event.Type, "subscription") {
		if err := s.applySubscription(ctx, event.Type, userID, data); err != nil {
			return err
		}
	}

	if event.Type == "order.paid" {
		if err := s.applyOrderPaid(ctx, userID, data); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) applySubscription(ctx context.Context, eventType string, userID uuid.UUID, data *eventData) error {
	access := &models.DynamicAccess{
		UserID:           userID,
		Status:           enums.SubscriptionStatus(data.subscriptionStatus()),
		SubscriptionID:   data.subscriptionID(),
		CurrentPeriodEnd: data.periodEnd(),
		Provider:         "polar",
	}
	if eventType == "subscription.canceled" {
		access.CancelAtPeriodEnd = data.CancelAtPeriod
	}

	if err := s.repo.UpsertAccess(ctx, access); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert dynamic access")
	}
	return nil
}

func (s *service) applyOrderPaid(ctx context.Context, userID uuid.UUID, data *eventData) error {
	invoiceID := data.invoiceID()
	if invoiceID == "" {
		s.warn(ctx, "order.paid without invoice id, ignoring")
		return nil
	}

	if _, err := s.repo.FindTransactionByInvoice(ctx, invoiceID); err == nil {
		// replayed delivery, the invoice is already recorded
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup transaction")
	}

	tx := &models.Transaction{
		UserID:      userID,
		InvoiceID:   invoiceID,
		AmountCents: data.orderAmount(),
		Status:      data.orderStatus(),
		PaymentDate: data.paymentDate(s.now()),
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
	}
	return nil
}

func (s *service) warn(ctx context.Context, msg string) {
	if s.log != nil {
		s.log.Warn(ctx, msg)
	}
}
