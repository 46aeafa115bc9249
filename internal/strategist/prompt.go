package strategist

import (
	"fmt"
	"strings"

	"github.com/dacv/strategist/internal/lookup"
)

func buildPrompt(in GenerateInput, trends lookup.TrendsData, sentiment lookup.SentimentData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a marketing strategy for %q aimed at %q with a monthly budget of $%.2f.\n",
		in.Product, in.Audience, in.Budget)

	if len(trends.TrendingPlatforms) > 0 {
		fmt.Fprintf(&b, "Trending platforms: %s.\n", strings.Join(trends.TrendingPlatforms, ", "))
	}
	if len(trends.PopularContentTypes) > 0 {
		fmt.Fprintf(&b, "Popular content types: %s.\n", strings.Join(trends.PopularContentTypes, ", "))
	}
	if sentiment.Sentiment != "" {
		fmt.Fprintf(&b, "Current market sentiment: %s (confidence %.2f).\n", sentiment.Sentiment, sentiment.Confidence)
	}

	b.WriteString("Cover social media tactics and posting cadence, SEO focus areas, and a content calendar.")
	return b.String()
}
