package models

import (
	"time"

	"gorm.io/datatypes"
)

// Plan mirrors one billing plan created at the payment provider
type Plan struct {
	PlanName     string `json:"plan_name"`
	PlanID       string `json:"plan_id"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Currency     string `json:"currency"`
	IntervalUnit string `json:"interval_unit"`
}

// PlanCatalog is the local mirror of the provider product and its plans
type PlanCatalog struct {
	ID        uint                      `gorm:"primaryKey" json:"-"`
	ProductID string                    `gorm:"type:varchar(64);not null;uniqueIndex" json:"product_id"`
	Plans     datatypes.JSONSlice[Plan] `json:"plans"`
	CreatedAt time.Time                 `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                 `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for PlanCatalog
func (PlanCatalog) TableName() string {
	return "plan_catalogs"
}

// HasPlan reports whether a plan id is already mirrored
func (c *PlanCatalog) HasPlan(planID string) bool {
	for _, p := range c.Plans {
		if p.PlanID == planID {
			return true
		}
	}
	return false
}

// Subscription links an opaque user id to a provider subscription
type Subscription struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	UserID          string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"user_id"`
	PlanID          string     `gorm:"type:varchar(64);not null;default:''" json:"plan_id"`
	PlanName        string     `gorm:"type:varchar(128);not null;default:''" json:"plan_name"`
	SubscriptionID  string     `gorm:"type:varchar(64);not null;default:'';index" json:"subscription_id"`
	Status          string     `gorm:"type:varchar(32);not null;default:''" json:"status"`
	NextBillingTime *time.Time `json:"next_billing_time,omitempty"`
	APIKey          *string    `gorm:"column:api_key;type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}
