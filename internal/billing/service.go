package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scanlyhq/scanly-backend/pkg/db/models"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
)

type billingRepository interface {
	FindAccessByUser(ctx context.Context, userID uuid.UUID) (*models.DynamicAccess, error)
	ListTransactionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

type checkoutProvider interface {
	CreateCheckoutSession(ctx context.Context, userID string) (string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// AccessView is the access-check payload.
type AccessView struct {
	HasAccess         bool    `json:"hasAccess"`
	Status            string  `json:"status,omitempty"`
	SubscriptionID    string  `json:"subscriptionId,omitempty"`
	CurrentPeriodEnd  *string `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool    `json:"cancelAtPeriodEnd,omitempty"`
}

// Service exposes the paid dynamic-access surface.
type Service interface {
	HasDynamicAccess(ctx context.Context, userID uuid.UUID) (bool, error)
	GetAccess(ctx context.Context, userID uuid.UUID) (*AccessView, error)
	CreateCheckout(ctx context.Context, userID uuid.UUID) (string, error)
	CancelSubscription(ctx context.Context, userID uuid.UUID) error
	ListPayments(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

type service struct {
	repo     billingRepository
	provider checkoutProvider
}

// NewService builds the billing service.
func NewService(repo billingRepository, provider checkoutProvider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if provider == nil {
		return nil, fmt.Errorf("checkout provider required")
	}
	return &service{repo: repo, provider: provider}, nil
}

// HasDynamicAccess is the entitlement gate. No row means no access;
// anything but exactly "active" means no access. Lookup errors other than
// not-found propagate so callers can distinguish "denied" from "unknown".
func (s *service) HasDynamicAccess(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	row, err := s.repo.FindAccessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.Status.GrantsAccess(), nil
}

func (s *service) GetAccess(ctx context.Context, userID uuid.UUID) (*AccessView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	row, err := s.repo.FindAccessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &AccessView{HasAccess: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup dynamic access")
	}

	view := &AccessView{
		HasAccess:         row.Status.GrantsAccess(),
		Status:            row.Status.String(),
		SubscriptionID:    row.SubscriptionID,
		CancelAtPeriodEnd: row.CancelAtPeriodEnd,
	}
	if row.CurrentPeriodEnd != nil {
		formatted := row.CurrentPeriodEnd.UTC().Format("2006-01-02T15:04:05Z07:00")
		view.CurrentPeriodEnd = &formatted
	}
	return view, nil
}

func (s *service) CreateCheckout(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	url, err := s.provider.CreateCheckoutSession(ctx, userID.String())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return url, nil
}

// CancelSubscription flags the user's subscription to end at period close.
// Access is not revoked here; the provider confirms via webhook.
func (s *service) CancelSubscription(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	row, err := s.repo.FindAccessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no subscription on file")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup dynamic access")
	}
	if strings.TrimSpace(row.SubscriptionID) == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no subscription on file")
	}

	if err := s.provider.CancelSubscription(ctx, row.SubscriptionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	return nil
}

func (s *service) ListPayments(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	rows, err := s.repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	if rows == nil {
		rows = []models.Transaction{}
	}
	return rows, nil
}
