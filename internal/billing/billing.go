package billing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/external/paypal"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/models"
	"gorm.io/gorm"
)

// EventSubscriptionCancelled is the webhook event that revokes a subscription
const EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"

const (
	productName        = "Mediacatalog"
	productDescription = "Media catalog subscription tiers"
	providerName       = "paypal"
)

// DefaultPlans are created when none of the stored plans is active at the provider
var DefaultPlans = []paypal.PlanSpec{
	{Name: "Standard Plan", Description: "Recommended for Standard Plan", IntervalUnit: "MONTH", Price: "15", Currency: "USD"},
	{Name: "Booster Plan", Description: "Recommended for Booster Plan", IntervalUnit: "MONTH", Price: "50", Currency: "USD"},
	{Name: "Spammer Plan", Description: "Recommended for Spammer Plan", IntervalUnit: "MONTH", Price: "100", Currency: "USD"},
	{Name: "Standard Plan", Description: "Recommended for Standard Plan", IntervalUnit: "YEAR", Price: "150", Currency: "USD"},
	{Name: "Booster Plan", Description: "Recommended for Booster Plan", IntervalUnit: "YEAR", Price: "500", Currency: "USD"},
	{Name: "Spammer Plan", Description: "Recommended for Spammer Plan", IntervalUnit: "YEAR", Price: "1000", Currency: "USD"},
}

// Provider is the payment provider surface the billing service uses
type Provider interface {
	CreateProduct(ctx context.Context, name, description string) (*paypal.Product, error)
	ListActivePlans(ctx context.Context) ([]models.Plan, error)
	CreatePlan(ctx context.Context, productID string, spec paypal.PlanSpec) (*models.Plan, error)
	CreateSubscription(ctx context.Context, planID string) (string, error)
	ShowSubscription(ctx context.Context, subscriptionID string) (*paypal.SubscriptionDetails, error)
}

// Service mirrors provider plans locally and tracks user subscriptions
type Service struct {
	db       *gorm.DB
	provider Provider
	logger   *logger.Logger
}

// NewService creates a billing service
func NewService(db *gorm.DB, provider Provider) *Service {
	return &Service{
		db:       db,
		provider: provider,
		logger:   logger.AppLogger(),
	}
}

// SaveRequest links a user to an approved subscription
type SaveRequest struct {
	UserID         string `json:"userId"`
	PlanID         string `json:"planId"`
	SubscriptionID string `json:"subscriptionId"`
	PlanName       string `json:"planName"`
}

// WebhookEvent is the subset of a provider webhook the service reacts to
type WebhookEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID string `json:"id"`
	} `json:"resource"`
}

// ReconcilePlans makes sure a product and a set of active plans exist.
// Plans are only ever added to the local catalog, never removed.
// A plan that fails to create is logged and skipped.
func (s *Service) ReconcilePlans(ctx context.Context) (*models.PlanCatalog, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	if catalog == nil {
		s.logger.InfoContext(ctx, "no product found, creating one")
		product, err := s.provider.CreateProduct(ctx, productName, productDescription)
		if err != nil {
			return nil, apperrors.ExternalServiceError(providerName, "failed to create product", err)
		}
		catalog = &models.PlanCatalog{ProductID: product.ID, Plans: []models.Plan{}}
		if err := s.db.WithContext(ctx).Create(catalog).Error; err != nil {
			return nil, apperrors.DatabaseError("failed to save plan catalog", err)
		}
	}

	active, err := s.provider.ListActivePlans(ctx)
	if err != nil {
		return nil, apperrors.ExternalServiceError(providerName, "failed to list plans", err)
	}

	for _, p := range active {
		if catalog.HasPlan(p.PlanID) {
			s.logger.WithFields(map[string]interface{}{
				"product_id": catalog.ProductID,
				"plan_id":    p.PlanID,
			}).DebugContext(ctx, "stored plan is active")
			return catalog, nil
		}
	}

	added := 0
	for _, spec := range DefaultPlans {
		plan, err := s.provider.CreatePlan(ctx, catalog.ProductID, spec)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"plan":     spec.Name,
				"interval": spec.IntervalUnit,
			}).ErrorContext(ctx, "failed to create plan", err)
			continue
		}
		if catalog.HasPlan(plan.PlanID) {
			continue
		}
		if plan.Currency != "USD" && plan.Currency != "EUR" {
			plan.Currency = "USD"
		}
		catalog.Plans = append(catalog.Plans, *plan)
		added++
	}

	if added > 0 {
		if err := s.db.WithContext(ctx).Save(catalog).Error; err != nil {
			return nil, apperrors.DatabaseError("failed to save plans", err)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": catalog.ProductID,
		"added":      added,
		"total":      len(catalog.Plans),
	}).InfoContext(ctx, "plans reconciled")

	return catalog, nil
}

// Plans returns the locally mirrored plans
func (s *Service) Plans(ctx context.Context) ([]models.Plan, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog.Plans == nil {
		return []models.Plan{}, nil
	}
	return catalog.Plans, nil
}

// CreateSubscription starts a subscription and returns the approval URL
func (s *Service) CreateSubscription(ctx context.Context, planID string) (string, error) {
	if strings.TrimSpace(planID) == "" {
		return "", apperrors.InvalidInputError("planId", "missing planId in the request body")
	}

	link, err := s.provider.CreateSubscription(ctx, planID)
	if err != nil {
		return "", apperrors.ExternalServiceError(providerName, "failed to create subscription", err)
	}
	return link, nil
}

// SaveSubscription stores the user's subscription with a fresh API key
func (s *Service) SaveSubscription(ctx context.Context, req SaveRequest) (*models.Subscription, error) {
	if req.UserID == "" || req.PlanID == "" || req.SubscriptionID == "" || req.PlanName == "" {
		return nil, apperrors.InvalidInputError("body", "missing required fields")
	}

	details, err := s.provider.ShowSubscription(ctx, req.SubscriptionID)
	if err != nil {
		return nil, apperrors.ExternalServiceError(providerName, "failed to show subscription", err)
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to generate api key")
	}

	var sub models.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", req.UserID).First(&sub).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sub.UserID = req.UserID
		sub.PlanID = req.PlanID
		sub.PlanName = req.PlanName
		sub.SubscriptionID = req.SubscriptionID
		sub.Status = details.Status
		sub.NextBillingTime = details.NextBillingTime
		sub.APIKey = &apiKey

		if sub.ID == 0 {
			return tx.Create(&sub).Error
		}
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, apperrors.DatabaseError("failed to save subscription", err)
	}

	// user_id comes from the request context
	s.logger.WithFields(map[string]interface{}{
		"subscription_id": req.SubscriptionID,
		"status":          details.Status,
	}).InfoContext(ctx, "subscription saved")

	return &sub, nil
}

// SubscriptionStatus returns the provider status of a subscription
func (s *Service) SubscriptionStatus(ctx context.Context, subscriptionID string) (string, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return "", apperrors.InvalidInputError("subscriptionId", "missing subscriptionId")
	}

	details, err := s.provider.ShowSubscription(ctx, subscriptionID)
	if err != nil {
		return "", apperrors.ExternalServiceError(providerName, "failed to show subscription", err)
	}
	return details.Status, nil
}

// GetUserPlan returns the subscription stored for a user
func (s *Service) GetUserPlan(ctx context.Context, userID string) (*models.Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.InvalidInputError("userId", "missing userId parameter")
	}

	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("user", userID)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load subscription", err)
	}
	return &sub, nil
}

// HandleWebhook applies a provider event; unknown events are acknowledged and ignored
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	log := s.logger.WithFields(map[string]interface{}{
		"event_type":      event.EventType,
		"subscription_id": event.Resource.ID,
	})
	log.InfoContext(ctx, "received webhook")

	if event.EventType != EventSubscriptionCancelled || event.Resource.ID == "" {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscription_id = ?", event.Resource.ID).
		Updates(map[string]interface{}{
			"subscription_id":   "",
			"plan_id":           "",
			"status":            "CANCELLED",
			"next_billing_time": nil,
			"api_key":           nil,
		})
	if result.Error != nil {
		return apperrors.DatabaseError("failed to revoke subscription", result.Error)
	}

	log.WithFields(map[string]interface{}{"revoked": result.RowsAffected}).InfoContext(ctx, "subscription cancelled, access revoked")
	return nil
}

func (s *Service) loadCatalog(ctx context.Context) (*models.PlanCatalog, error) {
	var catalog models.PlanCatalog
	err := s.db.WithContext(ctx).Order("id ASC").First(&catalog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("plan catalog", "default")
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load plan catalog", err)
	}
	return &catalog, nil
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
