package model

import (
	"encoding/json"
	"time"
)

// Draft is the structured output of the generative-text collaborator.
type Draft struct {
	SocialMedia map[string]any `json:"social_media"`
	SEO         map[string]any `json:"seo"`
	Content     map[string]any `json:"content"`
}

// BudgetAllocation splits a monthly budget across channels.
type BudgetAllocation struct {
	SocialMedia     float64 `json:"social_media"`
	SEO             float64 `json:"seo"`
	Content         float64 `json:"content"`
	PaidAdvertising float64 `json:"paid_advertising"`
	Total           float64 `json:"total"`
}

// PaidAdStrategy describes the paid advertising recommendation.
type PaidAdStrategy struct {
	Platforms   []string `json:"platforms"`
	DailyBudget float64  `json:"daily_budget"`
	BidStrategy string   `json:"bid_strategy"`
	AdFormats   []string `json:"ad_formats"`
}

// CompetitorAnalysis is a coarse competitor overview for a product.
type CompetitorAnalysis struct {
	MarketPosition string   `json:"market_position"`
	Opportunities  []string `json:"opportunities"`
	Threats        []string `json:"threats"`
}

// RealTimeInsights carries the lookup data surfaced to the client.
type RealTimeInsights struct {
	MarketSentiment    json.RawMessage    `json:"market_sentiment"`
	TrendingContent    []string           `json:"trending_content"`
	CompetitorAnalysis CompetitorAnalysis `json:"competitor_analysis"`
	DataSources        map[string]string  `json:"data_sources"`
}

// Strategy is the merged marketing strategy returned to the client.
type Strategy struct {
	SocialMedia      map[string]any   `json:"social_media"`
	SEO              map[string]any   `json:"seo"`
	Content          map[string]any   `json:"content"`
	PaidAdvertising  PaidAdStrategy   `json:"paid_advertising"`
	BudgetAllocation BudgetAllocation `json:"budget_allocation"`
	RealTimeInsights RealTimeInsights `json:"real_time_insights"`
	Timestamp        time.Time        `json:"timestamp"`
}

// StrategyRecord is a generated strategy kept in a user's history.
type StrategyRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Product   string    `json:"product"`
	Audience  string    `json:"audience"`
	Budget    float64   `json:"budget"`
	Strategy  *Strategy `json:"strategy"`
	CreatedAt time.Time `json:"timestamp"`
}
