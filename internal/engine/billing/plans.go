package billing

type Plan struct {
	Name              string `json:"name"`
	MonthlyPriceCents int    `json:"monthly_price_cents"`
	LeadsLimit        int    `json:"leads_limit"`
}

var plans = map[string]Plan{
	"starter":      {Name: "starter", MonthlyPriceCents: 9900, LeadsLimit: 500},
	"professional": {Name: "professional", MonthlyPriceCents: 29900, LeadsLimit: 2000},
}

func ByName(name string) (Plan, bool) {
	p, ok := plans[name]
	return p, ok
}

func Default() Plan {
	return plans["starter"]
}
