// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/dacv/strategist/internal/billing"
	"github.com/dacv/strategist/internal/model"
)

// GenerateStrategyRequest is the body of POST /generate-strategy.
type GenerateStrategyRequest struct {
	Product  string   `json:"product" validate:"required,max=5000"`
	Audience string   `json:"audience" validate:"required,max=200"`
	Budget   *float64 `json:"budget" validate:"required,gte=0,lte=100000000"`
	UserID   string   `json:"user_id" validate:"required,max=256"`
}

// PaymentRequiredResponse is returned when free uses are exhausted.
type PaymentRequiredResponse struct {
	Error           string `json:"error"`
	PaymentRequired bool   `json:"payment_required"`
}

// HistoryResponse is the list returned by GET /get-user-history.
type HistoryResponse []*model.StrategyRecord

// CreateSubscriptionRequest is the body of POST /create-subscription.
type CreateSubscriptionRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required,max=255"`
	PriceID         string `json:"price_id" validate:"required,max=255"`
	UserID          string `json:"user_id" validate:"required,max=256"`
	Email           string `json:"email" validate:"required,email,max=320"`
}

// CreateSubscriptionResponse is returned after a successful subscribe.
type CreateSubscriptionResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
}

// PlansResponse lists the subscription plans and the publishable key the
// browser needs to collect card details.
type PlansResponse struct {
	PublishableKey string         `json:"publishable_key,omitempty"`
	Plans          []billing.Plan `json:"plans"`
}

// SuccessResponse acknowledges a request with no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
