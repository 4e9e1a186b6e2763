package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/metrics"
	"github.com/glefebvre/mediacatalog/internal/models"
	"github.com/glefebvre/mediacatalog/internal/retry"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultBaseURL = "https://api-m.sandbox.paypal.com"
	defaultTimeout = 30 * time.Second
	serviceName    = "paypal"

	planPageSize = 20
)

// Client talks to the payment provider REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	brandName  string
	returnURL  string
	cancelURL  string
	logger     *logger.Logger
	retryCfg   retry.Config
	now        func() time.Time
}

// Config holds payment provider client configuration
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	BrandName    string
	ReturnURL    string
	CancelURL    string
	Timeout      time.Duration

	// Retry overrides the default retry policy
	Retry *retry.Config
}

// NewClient creates a client authenticated with OAuth2 client credentials
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	credentials := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// the token endpoint shares the timeout of API calls
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
	httpClient := credentials.Client(tokenCtx)
	httpClient.Timeout = cfg.Timeout

	retryCfg := retry.DefaultConfig()
	if cfg.Retry != nil {
		retryCfg = *cfg.Retry
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		brandName:  cfg.BrandName,
		returnURL:  cfg.ReturnURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger.AppLogger(),
		retryCfg:   retryCfg,
		now:        time.Now,
	}
}

// CreateProduct creates the catalog product plans are attached to
func (c *Client) CreateProduct(ctx context.Context, name, description string) (*Product, error) {
	payload := Product{
		Name:        name,
		Description: description,
		Type:        "SERVICE",
		Category:    "SOFTWARE",
	}

	var product Product
	if err := c.makeRequest(ctx, "product", http.MethodPost, "/v1/catalogs/products", nil, payload, true, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListActivePlans walks every plan page and returns the active plans with a billing cycle.
// Currencies other than USD and EUR are reported empty.
func (c *Client) ListActivePlans(ctx context.Context) ([]models.Plan, error) {
	plans := make([]models.Plan, 0)

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page_size", strconv.Itoa(planPageSize))
		params.Set("page", strconv.Itoa(page))
		params.Set("total_required", "true")

		var list planList
		if err := c.makeRequest(ctx, "plans", http.MethodGet, "/v1/billing/plans", params, nil, false, &list); err != nil {
			return nil, err
		}
		if len(list.Plans) == 0 {
			break
		}

		for _, p := range list.Plans {
			if p.Status != "ACTIVE" || len(p.BillingCycles) == 0 {
				continue
			}
			plan := toPlan(p)
			if plan.Currency != "USD" && plan.Currency != "EUR" {
				plan.Currency = ""
			}
			plans = append(plans, plan)
		}

		if list.TotalItems <= page*planPageSize {
			break
		}
	}

	return plans, nil
}

// CreatePlan creates an active monthly or yearly plan with a fixed price
func (c *Client) CreatePlan(ctx context.Context, productID string, spec PlanSpec) (*models.Plan, error) {
	payload := BillingPlan{
		ProductID:   productID,
		Name:        spec.Name,
		Description: spec.Description,
		Status:      "ACTIVE",
		BillingCycles: []BillingCycle{{
			Frequency:     Frequency{IntervalUnit: spec.IntervalUnit, IntervalCount: 1},
			TenureType:    "REGULAR",
			Sequence:      1,
			TotalCycles:   0,
			PricingScheme: PricingScheme{FixedPrice: &Money{Value: spec.Price, CurrencyCode: spec.Currency}},
		}},
		PaymentPreferences: &PaymentPreferences{
			AutoBillOutstanding:     true,
			SetupFee:                Money{Value: "0", CurrencyCode: spec.Currency},
			SetupFeeFailureAction:   "CONTINUE",
			PaymentFailureThreshold: 3,
		},
		Taxes: &Taxes{Percentage: "0", Inclusive: false},
	}

	var created BillingPlan
	if err := c.makeRequest(ctx, "plans", http.MethodPost, "/v1/billing/plans", nil, payload, true, &created); err != nil {
		return nil, err
	}
	if created.ID == "" || len(created.BillingCycles) == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedData, "plan response without id or billing cycle")
	}

	plan := toPlan(created)
	return &plan, nil
}

// ActivatePlan activates a plan
func (c *Client) ActivatePlan(ctx context.Context, planID string) error {
	return c.makeRequest(ctx, "plans", http.MethodPost, "/v1/billing/plans/"+url.PathEscape(planID)+"/activate", nil, nil, false, nil)
}

// DeactivatePlan deactivates a plan
func (c *Client) DeactivatePlan(ctx context.Context, planID string) error {
	return c.makeRequest(ctx, "plans", http.MethodPost, "/v1/billing/plans/"+url.PathEscape(planID)+"/deactivate", nil, nil, false, nil)
}

// ShowPlan retrieves a plan
func (c *Client) ShowPlan(ctx context.Context, planID string) (*BillingPlan, error) {
	var plan BillingPlan
	if err := c.makeRequest(ctx, "plans", http.MethodGet, "/v1/billing/plans/"+url.PathEscape(planID), nil, nil, false, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateSubscription starts a subscription to planID and returns the buyer approval URL
func (c *Client) CreateSubscription(ctx context.Context, planID string) (string, error) {
	if planID == "" {
		return "", apperrors.InvalidInputError("planId", "plan id is required")
	}

	payload := subscriptionRequest{
		PlanID:    planID,
		StartTime: c.now().Add(time.Minute).UTC().Format(time.RFC3339),
		Quantity:  "1",
		ApplicationContext: applicationContext{
			BrandName:  c.brandName,
			Locale:     "en-US",
			UserAction: "SUBSCRIBE_NOW",
			ReturnURL:  c.returnURL,
			CancelURL:  c.cancelURL,
		},
	}

	var resp subscriptionResponse
	if err := c.makeRequest(ctx, "subscriptions", http.MethodPost, "/v1/billing/subscriptions", nil, payload, true, &resp); err != nil {
		return "", err
	}

	for _, link := range resp.Links {
		if link.Rel == "approve" && link.Href != "" {
			return link.Href, nil
		}
	}
	return "", apperrors.New(apperrors.CodeMalformedData, "approval URL not found in subscription response")
}

// ShowSubscription returns the status and next billing time of a subscription
func (c *Client) ShowSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error) {
	if subscriptionID == "" {
		return nil, apperrors.InvalidInputError("subscriptionId", "subscription id is required")
	}

	var resp subscriptionResponse
	if err := c.makeRequest(ctx, "subscriptions", http.MethodGet, "/v1/billing/subscriptions/"+url.PathEscape(subscriptionID), nil, nil, false, &resp); err != nil {
		return nil, err
	}

	details := &SubscriptionDetails{ID: resp.ID, Status: resp.Status}
	if resp.BillingInfo != nil && resp.BillingInfo.NextBillingTime != "" {
		if t, err := time.Parse(time.RFC3339, resp.BillingInfo.NextBillingTime); err == nil {
			details.NextBillingTime = &t
		}
	}
	return details, nil
}

func toPlan(p BillingPlan) models.Plan {
	plan := models.Plan{
		PlanName:    p.Name,
		PlanID:      p.ID,
		Description: p.Description,
	}
	if len(p.BillingCycles) > 0 {
		cycle := p.BillingCycles[0]
		plan.IntervalUnit = cycle.Frequency.IntervalUnit
		if cycle.PricingScheme.FixedPrice != nil {
			plan.Price = cycle.PricingScheme.FixedPrice.Value
			plan.Currency = cycle.PricingScheme.FixedPrice.CurrencyCode
		}
	}
	return plan
}

// makeRequest performs an authenticated JSON request with retry.
// Creating calls carry one PayPal-Request-Id across attempts so retries stay idempotent.
func (c *Client) makeRequest(ctx context.Context, label, method, endpoint string, params url.Values, body interface{}, idempotent bool, result interface{}) error {
	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode PayPal request")
		}
	}

	requestID := ""
	if idempotent {
		requestID = uuid.NewString()
	}

	cfg := c.retryCfg
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
		}).WarnContext(ctx, "Retrying PayPal request: "+err.Error())
	}

	return retry.Do(ctx, cfg, func() error {
		return c.do(ctx, label, method, requestURL, payload, requestID, result)
	}, apperrors.IsRetryable)
}

func (c *Client) do(ctx context.Context, label, method, requestURL string, payload []byte, requestID string, result interface{}) error {
	start := time.Now()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to build PayPal request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "return=representation")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceName, label, 0, time.Since(start))
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return apperrors.Wrap(err, apperrors.CodeUnauthorized, "PayPal authentication failed").WithContext("service", serviceName)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return apperrors.Wrap(err, apperrors.CodeServiceTimeout, "PayPal request timed out").WithContext("service", serviceName)
		}
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "PayPal request failed").WithContext("service", serviceName)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(serviceName, label, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return apperrors.Wrap(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			apperrors.StatusFromHTTP(resp.StatusCode), "PayPal API error").
			WithContext("service", serviceName).
			WithContext("status", resp.StatusCode)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperrors.Wrap(err, apperrors.CodeMalformedData, "failed to decode PayPal response")
	}
	return nil
}
