package lookup

import "encoding/json"

// TrendsData is the decoded social trends payload.
type TrendsData struct {
	TrendingPlatforms   []string `json:"trending_platforms"`
	PopularContentTypes []string `json:"popular_content_types"`
	EngagementTips      []string `json:"engagement_tips"`
}

// SEOData is the decoded SEO payload.
type SEOData struct {
	KeywordDifficulty string   `json:"keyword_difficulty"`
	SearchVolume      int      `json:"search_volume"`
	CPC               float64  `json:"cpc"`
	RelatedKeywords   []string `json:"related_keywords"`
}

// SentimentData is the decoded sentiment payload.
type SentimentData struct {
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// Decode unmarshals a payload into T. Providers are free to return extra or
// missing fields, so decode failures yield the zero value.
func Decode[T any](payload json.RawMessage) T {
	var v T
	_ = json.Unmarshal(payload, &v)
	return v
}
