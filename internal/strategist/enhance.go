package strategist

import (
	"math"
	"strings"

	"github.com/dacv/strategist/internal/lookup"
	"github.com/dacv/strategist/internal/model"
)

// Budget shares per channel. They sum to one.
const (
	shareSocial  = 0.30
	shareSEO     = 0.20
	shareContent = 0.25
	sharePaid    = 0.25

	daysPerMonth = 30
)

// AllocateBudget splits a monthly budget across channels, rounded to cents.
func AllocateBudget(budget float64) model.BudgetAllocation {
	return model.BudgetAllocation{
		SocialMedia:     roundCents(budget * shareSocial),
		SEO:             roundCents(budget * shareSEO),
		Content:         roundCents(budget * shareContent),
		PaidAdvertising: roundCents(budget * sharePaid),
		Total:           roundCents(budget),
	}
}

// PaidAdvertising derives the paid ad plan from the budget and sentiment.
func PaidAdvertising(budget float64, sentiment lookup.SentimentData) model.PaidAdStrategy {
	plan := model.PaidAdStrategy{
		Platforms:   []string{"Google Ads", "Meta Ads"},
		DailyBudget: roundCents(budget / daysPerMonth),
		AdFormats:   []string{"search", "carousel", "short_video"},
	}

	switch strings.ToLower(sentiment.Sentiment) {
	case "positive":
		plan.BidStrategy = "maximize_conversions"
		plan.Platforms = append(plan.Platforms, "TikTok Ads")
	case "negative":
		plan.BidStrategy = "target_cpa"
	default:
		plan.BidStrategy = "maximize_clicks"
	}
	return plan
}

// CompetitorAnalysis summarizes the competitive landscape from SEO data.
func CompetitorAnalysis(product string, seo lookup.SEOData) model.CompetitorAnalysis {
	analysis := model.CompetitorAnalysis{
		Opportunities: make([]string, 0, len(seo.RelatedKeywords)),
		Threats:       []string{"established brands bidding on " + product},
	}

	switch strings.ToLower(seo.KeywordDifficulty) {
	case "low":
		analysis.MarketPosition = "emerging"
	case "high":
		analysis.MarketPosition = "saturated"
		analysis.Threats = append(analysis.Threats, "high cost per click")
	default:
		analysis.MarketPosition = "competitive"
	}

	for _, kw := range seo.RelatedKeywords {
		analysis.Opportunities = append(analysis.Opportunities, "rank for \""+kw+"\"")
	}
	return analysis
}

func enhanceSocial(draft map[string]any, trends lookup.TrendsData) map[string]any {
	out := cloneMap(draft)
	out["trending_platforms"] = trends.TrendingPlatforms
	out["recommended_content_types"] = trends.PopularContentTypes
	if len(trends.EngagementTips) > 0 {
		out["engagement_tips"] = trends.EngagementTips
	}
	return out
}

func enhanceSEO(draft map[string]any, keyword string, seo lookup.SEOData) map[string]any {
	out := cloneMap(draft)
	out["primary_keyword"] = keyword
	out["keyword_difficulty"] = seo.KeywordDifficulty
	out["search_volume"] = seo.SearchVolume
	out["cpc"] = seo.CPC
	out["related_keywords"] = seo.RelatedKeywords
	return out
}

func enhanceContent(draft map[string]any, sentiment lookup.SentimentData) map[string]any {
	out := cloneMap(draft)
	switch strings.ToLower(sentiment.Sentiment) {
	case "positive":
		out["tone"] = "enthusiastic and aspirational"
	case "negative":
		out["tone"] = "empathetic and reassuring"
	default:
		out["tone"] = "informative and balanced"
	}
	if len(sentiment.Keywords) > 0 {
		out["sentiment_keywords"] = sentiment.Keywords
	}
	return out
}

// seoKeyword is the first whitespace-separated word of product.
func seoKeyword(product string) string {
	fields := strings.Fields(product)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
