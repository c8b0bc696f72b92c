package inventory

import (
	"context"
	"sort"
	"strings"
)

// RegionExpander maps a region word such as "asia" to inventory countries
type RegionExpander interface {
	ExpandRegion(term string) []string
}

// queryStopwords never count as search terms on their own
var queryStopwords = map[string]bool{
	"show": true, "some": true, "something": true, "from": true, "with": true,
	"the": true, "and": true, "for": true, "please": true, "want": true,
	"art": true, "arts": true, "artwork": true, "artworks": true, "piece": true,
	"pieces": true, "painting": true, "paintings": true, "any": true, "have": true,
	"you": true, "like": true, "looking": true, "find": true, "more": true,
}

type scored struct {
	record Record
	score  int
}

// Search is the deterministic local search used when the LLM search pass is unavailable.
// Records are scored by how many query terms appear in name, country or description;
// region words match every country they expand to.
func (inv *Inventory) Search(ctx context.Context, query string, regions RegionExpander, limit int) []Record {
	terms := queryTerms(query)
	if len(terms) == 0 || len(inv.records) == 0 {
		return nil
	}

	countryTerms := make(map[string]bool)
	if regions != nil {
		for _, term := range terms {
			for _, country := range regions.ExpandRegion(term) {
				countryTerms[strings.ToLower(country)] = true
			}
		}
	}

	var results []scored
	for _, record := range inv.records {
		if ctx.Err() != nil {
			break
		}

		name := strings.ToLower(record.Name)
		country := strings.ToLower(record.Country)
		description := strings.ToLower(record.Description)

		score := 0
		for _, term := range terms {
			switch {
			case strings.Contains(name, term):
				score += 3
			case strings.Contains(country, term):
				score += 2
			case strings.Contains(description, term):
				score++
			}
		}
		if countryTerms[country] {
			score += 2
		}

		if score > 0 {
			results = append(results, scored{record: record, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	records := make([]Record, len(results))
	for i, r := range results {
		records[i] = r.record
	}
	return records
}

func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})

	seen := make(map[string]bool)
	var terms []string
	for _, f := range fields {
		if len(f) < 3 || queryStopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
