package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/retry"
)

// newTestServer mounts api behind a token endpoint that issues "test-token"
func newTestServer(t *testing.T, api http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid_client"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		api(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		BrandName:    "Mediacatalog",
		ReturnURL:    "http://localhost:3000/dashboard",
		CancelURL:    "http://localhost:3000/dashboard",
		Timeout:      2 * time.Second,
		Retry:        &retry.Config{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1},
	})
	return client, &tokenCalls
}

func TestCreateProduct(t *testing.T) {
	client, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/catalogs/products", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("PayPal-Request-Id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SERVICE", body.Type)

		fmt.Fprint(w, `{"id":"PROD-1","name":"Mediacatalog"}`)
	})

	product, err := client.CreateProduct(context.Background(), "Mediacatalog", "Streaming catalog")
	require.NoError(t, err)
	assert.Equal(t, "PROD-1", product.ID)

	_, err = client.CreateProduct(context.Background(), "Mediacatalog", "again")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(tokenCalls), "token is cached")
}

func TestListActivePlans_PagesAndFilters(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("page_size"))
		assert.Equal(t, "true", r.URL.Query().Get("total_required"))

		switch r.URL.Query().Get("page") {
		case "1":
			plans := make([]string, 0, 20)
			for i := 0; i < 19; i++ {
				plans = append(plans, fmt.Sprintf(`{"id":"P-%d","name":"Old","status":"INACTIVE","billing_cycles":[]}`, i))
			}
			plans = append(plans, `{"id":"P-GBP","name":"Pound","status":"ACTIVE","billing_cycles":[{"frequency":{"interval_unit":"MONTH"},"pricing_scheme":{"fixed_price":{"value":"9","currency_code":"GBP"}}}]}`)
			fmt.Fprintf(w, `{"total_items":22,"plans":[%s]}`, joinJSON(plans))
		case "2":
			fmt.Fprint(w, `{"total_items":22,"plans":[
				{"id":"P-STD","name":"Standard Plan","description":"Recommended","status":"ACTIVE","billing_cycles":[{"frequency":{"interval_unit":"YEAR"},"pricing_scheme":{"fixed_price":{"value":"150","currency_code":"USD"}}}]},
				{"id":"P-NOCYCLE","name":"Broken","status":"ACTIVE"}
			]}`)
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	})

	plans, err := client.ListActivePlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "P-GBP", plans[0].PlanID)
	assert.Equal(t, "", plans[0].Currency, "unsupported currency is blanked")
	assert.Equal(t, "P-STD", plans[1].PlanID)
	assert.Equal(t, "150", plans[1].Price)
	assert.Equal(t, "USD", plans[1].Currency)
	assert.Equal(t, "YEAR", plans[1].IntervalUnit)
}

func joinJSON(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}

func TestCreatePlan(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body BillingPlan
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PROD-1", body.ProductID)
		assert.Equal(t, "ACTIVE", body.Status)
		require.Len(t, body.BillingCycles, 1)
		assert.Equal(t, "15", body.BillingCycles[0].PricingScheme.FixedPrice.Value)
		assert.Equal(t, 3, body.PaymentPreferences.PaymentFailureThreshold)

		body.ID = "P-NEW"
		json.NewEncoder(w).Encode(body)
	})

	plan, err := client.CreatePlan(context.Background(), "PROD-1", PlanSpec{
		Name: "Standard Plan", Description: "Recommended for Standard Plan",
		IntervalUnit: "MONTH", Price: "15", Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "P-NEW", plan.PlanID)
	assert.Equal(t, "Standard Plan", plan.PlanName)
	assert.Equal(t, "MONTH", plan.IntervalUnit)
}

func TestCreatePlan_RetriesWithSameRequestID(t *testing.T) {
	var attempts int32
	var firstID string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			firstID = r.Header.Get("PayPal-Request-Id")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, firstID, r.Header.Get("PayPal-Request-Id"))
		fmt.Fprint(w, `{"id":"P-1","name":"Booster Plan","billing_cycles":[{"frequency":{"interval_unit":"MONTH"},"pricing_scheme":{"fixed_price":{"value":"50","currency_code":"USD"}}}]}`)
	})

	plan, err := client.CreatePlan(context.Background(), "PROD-1", PlanSpec{Name: "Booster Plan", IntervalUnit: "MONTH", Price: "50", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "P-1", plan.PlanID)
	assert.Equal(t, int32(2), attempts)
}

func TestActivateAndDeactivatePlan(t *testing.T) {
	var paths []string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.ActivatePlan(context.Background(), "P-1"))
	require.NoError(t, client.DeactivatePlan(context.Background(), "P-1"))
	assert.Equal(t, []string{"/v1/billing/plans/P-1/activate", "/v1/billing/plans/P-1/deactivate"}, paths)
}

func TestShowPlan(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing/plans/P-9", r.URL.Path)
		fmt.Fprint(w, `{"id":"P-9","status":"ACTIVE","name":"Spammer Plan"}`)
	})

	plan, err := client.ShowPlan(context.Background(), "P-9")
	require.NoError(t, err)
	assert.Equal(t, "Spammer Plan", plan.Name)
}

func TestCreateSubscription(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body subscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "P-1", body.PlanID)
		assert.Equal(t, "SUBSCRIBE_NOW", body.ApplicationContext.UserAction)
		assert.Equal(t, "Mediacatalog", body.ApplicationContext.BrandName)

		fmt.Fprint(w, `{"id":"I-1","status":"APPROVAL_PENDING","links":[
			{"href":"https://paypal.test/self","rel":"self"},
			{"href":"https://paypal.test/approve","rel":"approve"}]}`)
	})

	link, err := client.CreateSubscription(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.test/approve", link)

	_, err = client.CreateSubscription(context.Background(), "")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCreateSubscription_MissingApprovalLink(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"I-1","links":[]}`)
	})

	_, err := client.CreateSubscription(context.Background(), "P-1")
	assert.Equal(t, apperrors.CodeMalformedData, apperrors.GetErrorCode(err))
}

func TestShowSubscription(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing/subscriptions/I-1", r.URL.Path)
		fmt.Fprint(w, `{"id":"I-1","status":"ACTIVE","billing_info":{"next_billing_time":"2026-11-01T10:00:00Z"}}`)
	})

	details, err := client.ShowSubscription(context.Background(), "I-1")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", details.Status)
	require.NotNil(t, details.NextBillingTime)
	assert.Equal(t, 2026, details.NextBillingTime.Year())
}

func TestShowSubscription_NotFound(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"name":"RESOURCE_NOT_FOUND"}`)
	})

	_, err := client.ShowSubscription(context.Background(), "I-404")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "x", ClientSecret: "y", Retry: &retry.Config{MaxAttempts: 1}})

	_, err := client.ShowPlan(context.Background(), "P-1")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetErrorCode(err))
}
