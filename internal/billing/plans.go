package billing

// Plan is a subscription tier offered to users.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PriceID     string   `json:"price_id"`
	AmountCents int64    `json:"amount_cents"`
	Currency    string   `json:"currency"`
	Interval    string   `json:"interval"`
	Features    []string `json:"features"`
}

// PriceIDs maps each plan to its provider price identifier.
type PriceIDs struct {
	Starter      string
	Professional string
	Enterprise   string
}

// DefaultPriceIDs are the identifiers used when none are configured.
var DefaultPriceIDs = PriceIDs{
	Starter:      "price_1",
	Professional: "price_2",
	Enterprise:   "price_3",
}

// Plans returns the plan catalog, cheapest first.
func Plans(ids PriceIDs) []Plan {
	if ids.Starter == "" {
		ids.Starter = DefaultPriceIDs.Starter
	}
	if ids.Professional == "" {
		ids.Professional = DefaultPriceIDs.Professional
	}
	if ids.Enterprise == "" {
		ids.Enterprise = DefaultPriceIDs.Enterprise
	}

	return []Plan{
		{
			ID:          "starter",
			Name:        "Starter",
			PriceID:     ids.Starter,
			AmountCents: 2900,
			Currency:    "usd",
			Interval:    "month",
			Features: []string{
				"10 strategy generations per month",
				"Basic market insights",
				"Email support",
			},
		},
		{
			ID:          "professional",
			Name:        "Professional",
			PriceID:     ids.Professional,
			AmountCents: 9900,
			Currency:    "usd",
			Interval:    "month",
			Features: []string{
				"Unlimited strategy generations",
				"Advanced market insights",
				"Real-time competitor analysis",
				"Priority support",
			},
		},
		{
			ID:          "enterprise",
			Name:        "Enterprise",
			PriceID:     ids.Enterprise,
			AmountCents: 29900,
			Currency:    "usd",
			Interval:    "month",
			Features: []string{
				"Unlimited strategy generations",
				"All Professional features",
				"Team collaboration tools",
				"Dedicated account manager",
				"API access",
			},
		},
	}
}
