package inventory

import "strings"

// Partition names the source of a vocabulary term
type Partition string

const (
	PartitionCountries Partition = "countries"
	PartitionStyles    Partition = "styles"
	PartitionColors    Partition = "colors"
	PartitionThemes    Partition = "themes"
	PartitionNames     Partition = "names"
	PartitionTokens    Partition = "artwork_tokens"
)

const (
	minTermLength  = 3
	minTokenLength = 4
)

// Term is one lower-cased vocabulary entry
type Term struct {
	Value     string
	Partition Partition
}

// Vocabulary is the ordered set of words a search action may carry. Order is
// countries, styles, colors, themes, names, tokens; a duplicate keeps its first position.
type Vocabulary struct {
	terms      []Term
	index      map[string]int
	partitions map[Partition][]string
}

// BuildVocabulary derives the vocabulary from the inventory. The same inventory text always
// yields the same terms in the same order.
func BuildVocabulary(inv *Inventory) *Vocabulary {
	v := &Vocabulary{
		index:      make(map[string]int),
		partitions: make(map[Partition][]string),
	}

	section := inv.Keywords()

	countries := section.Countries
	if len(countries) == 0 {
		for _, r := range inv.records {
			countries = append(countries, strings.ToLower(r.Country))
		}
	}

	v.addAll(PartitionCountries, countries)
	v.addAll(PartitionStyles, section.Styles)
	v.addAll(PartitionColors, section.Colors)
	v.addAll(PartitionThemes, section.Themes)

	for _, r := range inv.records {
		v.add(PartitionNames, r.Name)
	}

	for _, r := range inv.records {
		for _, word := range strings.Fields(r.Name) {
			if token := cleanToken(word); len(token) >= minTokenLength {
				v.add(PartitionTokens, token)
			}
		}
		for _, word := range strings.Fields(r.Description) {
			if token := cleanToken(word); len(token) >= minTokenLength {
				v.add(PartitionTokens, token)
			}
		}
	}

	return v
}

func cleanToken(word string) string {
	return strings.Trim(strings.ToLower(word), `(),.;:!?"'`)
}

func (v *Vocabulary) addAll(p Partition, values []string) {
	for _, value := range values {
		v.add(p, value)
	}
}

func (v *Vocabulary) add(p Partition, value string) {
	term := strings.ToLower(strings.TrimSpace(value))
	if len(term) < minTermLength {
		return
	}
	if _, exists := v.index[term]; exists {
		return
	}
	v.index[term] = len(v.terms)
	v.terms = append(v.terms, Term{Value: term, Partition: p})
	v.partitions[p] = append(v.partitions[p], term)
}

// Terms returns every term value in vocabulary order
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	for i, t := range v.terms {
		out[i] = t.Value
	}
	return out
}

// Entries returns every term with its partition in vocabulary order
func (v *Vocabulary) Entries() []Term {
	out := make([]Term, len(v.terms))
	copy(out, v.terms)
	return out
}

// Partition returns the terms that were first contributed by p
func (v *Vocabulary) Partition(p Partition) []string {
	src := v.partitions[p]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.index[strings.ToLower(strings.TrimSpace(term))]
	return ok
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}
