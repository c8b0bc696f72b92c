package grounding

// DefaultRegions maps region words a customer may use to the countries they cover. Only
// countries that actually appear in the inventory are returned by ExpandRegion.
var DefaultRegions = map[string][]string{
	"uk":             {"England", "UK", "United Kingdom"},
	"united kingdom": {"England", "UK", "United Kingdom"},
	"britain":        {"England", "UK", "United Kingdom"},
	"british":        {"England", "UK", "United Kingdom"},
	"english":        {"England", "UK", "United Kingdom"},
	"europe": {
		"England", "UK", "France", "Italy", "Spain", "Portugal", "Netherlands", "Germany",
		"Norway", "Ireland", "Poland", "Austria", "Hungary", "Denmark", "Switzerland",
		"Greece", "Iceland", "Finland", "Turkey",
	},
	"eastern europe": {"Poland", "Ukraine", "Russia", "Hungary", "Romania", "Czech Republic"},
	"asia":           {"Japan", "China", "Korea", "Thailand", "India", "Vietnam", "Cambodia", "Turkey"},
	"africa":         {"South Africa", "Egypt", "Morocco", "Kenya", "Nigeria"},
	"north america":  {"USA", "Canada", "Mexico"},
	"south america":  {"Brazil", "Argentina", "Chile", "Peru"},
	"americas":       {"USA", "Canada", "Brazil", "Argentina", "Chile", "Mexico"},
	"oceania":        {"Australia", "New Zealand"},
	"america":        {"USA"},
	"american":       {"USA"},
	"united states":  {"USA"},
	"japanese":       {"Japan"},
	"chinese":        {"China"},
	"french":         {"France"},
	"italian":        {"Italy"},
	"dutch":          {"Netherlands"},
}
