package paypal

import "time"

// Money is an amount in a currency
type Money struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

// Frequency is the cadence of a billing cycle
type Frequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

// PricingScheme holds the fixed price of a billing cycle
type PricingScheme struct {
	FixedPrice *Money `json:"fixed_price,omitempty"`
}

// BillingCycle is one cycle of a billing plan
type BillingCycle struct {
	Frequency     Frequency     `json:"frequency"`
	TenureType    string        `json:"tenure_type"`
	Sequence      int           `json:"sequence"`
	TotalCycles   int           `json:"total_cycles"`
	PricingScheme PricingScheme `json:"pricing_scheme"`
}

// PaymentPreferences controls billing failure handling
type PaymentPreferences struct {
	AutoBillOutstanding     bool   `json:"auto_bill_outstanding"`
	SetupFee                Money  `json:"setup_fee"`
	SetupFeeFailureAction   string `json:"setup_fee_failure_action"`
	PaymentFailureThreshold int    `json:"payment_failure_threshold"`
}

// Taxes applied to a plan
type Taxes struct {
	Percentage string `json:"percentage"`
	Inclusive  bool   `json:"inclusive"`
}

// BillingPlan is a provider billing plan
type BillingPlan struct {
	ID                 string              `json:"id,omitempty"`
	ProductID          string              `json:"product_id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Status             string              `json:"status"`
	BillingCycles      []BillingCycle      `json:"billing_cycles"`
	PaymentPreferences *PaymentPreferences `json:"payment_preferences,omitempty"`
	Taxes              *Taxes              `json:"taxes,omitempty"`
}

// Product is a catalog product plans are attached to
type Product struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	HomeURL     string `json:"home_url,omitempty"`
}

// PlanSpec describes a plan to create
type PlanSpec struct {
	Name         string
	Description  string
	IntervalUnit string // MONTH or YEAR
	Price        string
	Currency     string
}

// Link is a HATEOAS link of a provider response
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// SubscriptionDetails is the part of a subscription the billing service stores
type SubscriptionDetails struct {
	ID              string
	Status          string
	NextBillingTime *time.Time
}

type planList struct {
	Plans      []BillingPlan `json:"plans"`
	TotalItems int           `json:"total_items"`
	TotalPages int           `json:"total_pages"`
}

type applicationContext struct {
	BrandName  string `json:"brand_name"`
	Locale     string `json:"locale"`
	UserAction string `json:"user_action"`
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
}

type subscriptionRequest struct {
	PlanID             string             `json:"plan_id"`
	StartTime          string             `json:"start_time"`
	Quantity           string             `json:"quantity"`
	ApplicationContext applicationContext `json:"application_context"`
}

type subscriptionResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Links       []Link `json:"links"`
	BillingInfo *struct {
		NextBillingTime string `json:"next_billing_time"`
	} `json:"billing_info"`
}
