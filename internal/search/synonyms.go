package search

// DomainSynonyms maps a lowercase query phrase to phrases searched in its place.
// Each mapping yields whole variants of the query; terms are never OR'd together.
var DomainSynonyms = map[string][]string{
	"golden visa":               {"residency by investment", "investor visa"},
	"residency by investment":   {"golden visa"},
	"investor visa":             {"golden visa"},
	"rbi":                       {"residency by investment"},
	"citizenship by investment": {"second passport", "economic citizenship"},
	"cbi":                       {"citizenship by investment"},
	"second passport":           {"citizenship by investment"},
	"digital nomad":             {"remote work visa", "nomad visa"},
	"nomad visa":                {"digital nomad"},
	"remote work visa":          {"digital nomad"},
	"permanent residency":       {"permanent residence"},
	"permanent residence":       {"permanent residency"},
	"pr":                        {"permanent residency"},
	"startup visa":              {"entrepreneur visa"},
	"entrepreneur visa":         {"startup visa"},
	"retirement visa":           {"pensioner visa", "passive income visa"},
	"passive income visa":       {"retirement visa"},
	"real estate":               {"property"},
	"property":                  {"real estate"},
	"uae":                       {"united arab emirates"},
	"united arab emirates":      {"uae"},
	"uk":                        {"united kingdom"},
	"united kingdom":            {"uk"},
	"usa":                       {"united states"},
	"us":                        {"united states"},
	"united states":             {"usa"},
}
