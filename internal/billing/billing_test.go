package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/external/paypal"
	"github.com/glefebvre/mediacatalog/internal/models"
	testhelpers "github.com/glefebvre/mediacatalog/internal/testing"
)

type fakeProvider struct {
	products     int
	active       []models.Plan
	created      []paypal.PlanSpec
	failPlan     string
	listErr      error
	subscription *paypal.SubscriptionDetails
	showErr      error
}

func (f *fakeProvider) CreateProduct(ctx context.Context, name, description string) (*paypal.Product, error) {
	f.products++
	return &paypal.Product{ID: fmt.Sprintf("PROD-%d", f.products), Name: name}, nil
}

func (f *fakeProvider) ListActivePlans(ctx context.Context) ([]models.Plan, error) {
	return f.active, f.listErr
}

func (f *fakeProvider) CreatePlan(ctx context.Context, productID string, spec paypal.PlanSpec) (*models.Plan, error) {
	if spec.Name == f.failPlan && spec.IntervalUnit == "YEAR" {
		return nil, errors.New("provider rejected plan")
	}
	f.created = append(f.created, spec)
	return &models.Plan{
		PlanID:       fmt.Sprintf("P-%d", len(f.created)),
		PlanName:     spec.Name,
		Price:        spec.Price,
		Currency:     spec.Currency,
		IntervalUnit: spec.IntervalUnit,
	}, nil
}

func (f *fakeProvider) CreateSubscription(ctx context.Context, planID string) (string, error) {
	return "https://paypal.test/approve/" + planID, nil
}

func (f *fakeProvider) ShowSubscription(ctx context.Context, id string) (*paypal.SubscriptionDetails, error) {
	if f.showErr != nil {
		return nil, f.showErr
	}
	return f.subscription, nil
}

func TestReconcilePlans_CreatesProductAndDefaults(t *testing.T) {
	db := testhelpers.TestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)

	catalog, err := svc.ReconcilePlans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "PROD-1", catalog.ProductID)
	assert.Len(t, catalog.Plans, 6)
	assert.Equal(t, "15", catalog.Plans[0].Price)
	assert.Equal(t, "1000", catalog.Plans[5].Price)
	assert.Equal(t, "YEAR", catalog.Plans[5].IntervalUnit)

	plans, err := svc.Plans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 6)
	testhelpers.AssertCount(t, db, &models.PlanCatalog{}, 1, "single catalog")
}

func TestReconcilePlans_SkipsWhenAStoredPlanIsActive(t *testing.T) {
	db := testhelpers.TestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)

	catalog, err := svc.ReconcilePlans(context.Background())
	require.NoError(t, err)

	provider.active = []models.Plan{{PlanID: catalog.Plans[2].PlanID}}
	provider.created = nil

	again, err := svc.ReconcilePlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, provider.created)
	assert.Equal(t, 1, provider.products, "product reused")
	assert.Len(t, again.Plans, 6)
}

func TestReconcilePlans_ToleratesPlanFailures(t *testing.T) {
	db := testhelpers.TestDB(t)
	provider := &fakeProvider{failPlan: "Booster Plan"}
	svc := NewService(db, provider)

	catalog, err := svc.ReconcilePlans(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog.Plans, 5)
}

func TestReconcilePlans_ListFailure(t *testing.T) {
	db := testhelpers.TestDB(t)
	svc := NewService(db, &fakeProvider{listErr: errors.New("boom")})

	_, err := svc.ReconcilePlans(context.Background())
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetErrorCode(err))
}

func TestPlans_NoCatalog(t *testing.T) {
	svc := NewService(testhelpers.TestDB(t), &fakeProvider{})

	_, err := svc.Plans(context.Background())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateSubscription(t *testing.T) {
	svc := NewService(testhelpers.TestDB(t), &fakeProvider{})

	link, err := svc.CreateSubscription(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.test/approve/P-1", link)

	_, err = svc.CreateSubscription(context.Background(), "")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestSaveSubscriptionAndWebhook(t *testing.T) {
	db := testhelpers.TestDB(t)
	next := time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{subscription: &paypal.SubscriptionDetails{ID: "I-1", Status: "ACTIVE", NextBillingTime: &next}}
	svc := NewService(db, provider)
	ctx := context.Background()

	req := SaveRequest{UserID: "user-1", PlanID: "P-1", SubscriptionID: "I-1", PlanName: "Standard Plan"}
	sub, err := svc.SaveSubscription(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, sub.APIKey)
	assert.Len(t, *sub.APIKey, 64)
	firstKey := *sub.APIKey

	sub, err = svc.SaveSubscription(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, *sub.APIKey, "a new key on every save")
	testhelpers.AssertCount(t, db, &models.Subscription{}, 1, "one subscription per user")

	stored, err := svc.GetUserPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", stored.Status)
	require.NotNil(t, stored.NextBillingTime)
	assert.True(t, stored.NextBillingTime.Equal(next))

	require.NoError(t, svc.HandleWebhook(ctx, WebhookEvent{EventType: "BILLING.SUBSCRIPTION.ACTIVATED"}))

	event := WebhookEvent{EventType: EventSubscriptionCancelled}
	event.Resource.ID = "I-1"
	require.NoError(t, svc.HandleWebhook(ctx, event))

	stored, err = svc.GetUserPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "", stored.SubscriptionID)
	assert.Equal(t, "", stored.PlanID)
	assert.Nil(t, stored.APIKey)
	assert.Nil(t, stored.NextBillingTime)
}

func TestSaveSubscription_Validation(t *testing.T) {
	svc := NewService(testhelpers.TestDB(t), &fakeProvider{})

	_, err := svc.SaveSubscription(context.Background(), SaveRequest{UserID: "u", PlanID: "p"})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestSaveSubscription_ProviderFailure(t *testing.T) {
	svc := NewService(testhelpers.TestDB(t), &fakeProvider{showErr: errors.New("down")})

	_, err := svc.SaveSubscription(context.Background(), SaveRequest{UserID: "u", PlanID: "p", SubscriptionID: "s", PlanName: "n"})
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetErrorCode(err))
}

func TestGetUserPlan(t *testing.T) {
	svc := NewService(testhelpers.TestDB(t), &fakeProvider{})

	_, err := svc.GetUserPlan(context.Background(), "nobody")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetUserPlan(context.Background(), "")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestSubscriptionStatus(t *testing.T) {
	svc := NewService(testhelpers.TestDB(t), &fakeProvider{subscription: &paypal.SubscriptionDetails{Status: "SUSPENDED"}})

	status, err := svc.SubscriptionStatus(context.Background(), "I-1")
	require.NoError(t, err)
	assert.Equal(t, "SUSPENDED", status)
}
