package subscriptions

// Plan is a purchasable camp card tier.
type Plan struct {
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Months     int    `json:"months"`
}

// plan pricing is product policy; council-specific pricing is a future concern.
var plans = map[string]Plan{
	"season": {Name: "season", PriceCents: 1000, Months: 6},
	"annual": {Name: "annual", PriceCents: 2500, Months: 12},
}

// LookupPlan returns the plan by name.
func LookupPlan(name string) (Plan, bool) {
	p, ok := plans[name]
	return p, ok
}

// Plans returns all purchasable plans.
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p)
	}
	return out
}
