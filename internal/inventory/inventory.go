package inventory

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"artisty_assistant/pkg"
)

const (
	completeSectionHeader = "=== COMPLETE INVENTORY ==="
	keywordSectionHeader  = "=== SEARCH KEYWORDS ==="

	// unavailableText is what prompts see when no inventory file could be read
	unavailableText = "No inventory available"
)

// <ordinal>. <name> - $<price> (<country>) - <description>
var recordPattern = regexp.MustCompile(`^\s*(\d+)\.\s+(.+?)\s+-\s+\$(\d+(?:\.\d+)?)\s*\(([^()]+)\)\s*-\s*(.*?)\s*$`)

// Record is one artwork line of the inventory file
type Record struct {
	Ordinal     int     `json:"ordinal"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Country     string  `json:"country"`
	Description string  `json:"description"`
}

// Line renders the record back into the inventory grammar
func (r Record) Line() string {
	return fmt.Sprintf("%d. %s - $%s (%s) - %s",
		r.Ordinal, r.Name, strconv.FormatFloat(r.Price, 'f', -1, 64), r.Country, r.Description)
}

// KeywordSection is the optional trailing "=== SEARCH KEYWORDS ===" block
type KeywordSection struct {
	Countries []string
	Styles    []string
	Colors    []string
	Themes    []string
}

// Inventory is the parsed, read-only artwork catalogue. It is safe for concurrent use.
type Inventory struct {
	text      string
	records   []Record
	byName    map[string]int
	keywords  KeywordSection
	available bool
}

// Parse reads inventory text line by line. Lines that do not match the record grammar are
// skipped and reported back so the caller can log them.
func Parse(raw string) (*Inventory, []string) {
	inv := &Inventory{
		text:      strings.TrimSpace(raw),
		byName:    make(map[string]int),
		available: true,
	}

	var skipped []string
	inKeywords := false

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch trimmed {
		case completeSectionHeader:
			inKeywords = false
			continue
		case keywordSectionHeader:
			inKeywords = true
			continue
		}

		if inKeywords {
			inv.parseKeywordLine(trimmed)
			continue
		}

		record, ok := parseRecord(trimmed)
		if !ok {
			skipped = append(skipped, trimmed)
			continue
		}

		key := strings.ToLower(record.Name)
		if _, exists := inv.byName[key]; exists {
			skipped = append(skipped, trimmed)
			continue
		}
		inv.byName[key] = len(inv.records)
		inv.records = append(inv.records, record)
	}

	return inv, skipped
}

func parseRecord(line string) (Record, bool) {
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	ordinal, err := strconv.Atoi(m[1])
	if err != nil {
		return Record{}, false
	}

	price, err := strconv.ParseFloat(m[3], 64)
	if err != nil || price < 0 {
		return Record{}, false
	}

	name := strings.TrimSpace(m[2])
	country := strings.TrimSpace(m[4])
	if name == "" || country == "" {
		return Record{}, false
	}

	return Record{
		Ordinal:     ordinal,
		Name:        name,
		Price:       price,
		Country:     country,
		Description: strings.TrimSpace(m[5]),
	}, true
}

func (inv *Inventory) parseKeywordLine(line string) {
	label, values, found := strings.Cut(line, ":")
	if !found {
		return
	}

	var list []string
	for _, v := range strings.Split(values, ",") {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			list = append(list, v)
		}
	}

	switch strings.ToLower(strings.TrimSpace(label)) {
	case "countries":
		inv.keywords.Countries = list
	case "styles":
		inv.keywords.Styles = list
	case "colors", "colours":
		inv.keywords.Colors = list
	case "themes":
		inv.keywords.Themes = list
	}
}

// Unavailable is the inventory used when no file could be loaded. Every lookup misses.
func Unavailable() *Inventory {
	return &Inventory{byName: map[string]int{}}
}

// Load reads the first path that exists. When none does it returns Unavailable together
// with an error wrapping pkg.ErrInventoryUnavailable, so startup can continue degraded.
func Load(paths ...string) (*Inventory, []string, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				lastErr = err
			}
			continue
		}
		inv, skipped := Parse(string(data))
		return inv, skipped, nil
	}

	if lastErr != nil {
		return Unavailable(), nil, fmt.Errorf("%w: %v", pkg.ErrInventoryUnavailable, lastErr)
	}
	return Unavailable(), nil, fmt.Errorf("%w: none of %v found", pkg.ErrInventoryUnavailable, paths)
}

// Available reports whether an inventory file was loaded
func (inv *Inventory) Available() bool {
	return inv.available
}

// Text is the raw inventory injected into prompts
func (inv *Inventory) Text() string {
	if !inv.available || inv.text == "" {
		return unavailableText
	}
	return inv.text
}

// Length is the size of the loaded inventory text in bytes
func (inv *Inventory) Length() int {
	if !inv.available {
		return 0
	}
	return len(inv.text)
}

// Count is the number of parsed records
func (inv *Inventory) Count() int {
	return len(inv.records)
}

// Records returns a copy of the parsed records in file order
func (inv *Inventory) Records() []Record {
	out := make([]Record, len(inv.records))
	copy(out, inv.records)
	return out
}

// Names returns canonical artwork names in file order
func (inv *Inventory) Names() []string {
	names := make([]string, len(inv.records))
	for i, r := range inv.records {
		names[i] = r.Name
	}
	return names
}

// Keywords returns the optional keyword section
func (inv *Inventory) Keywords() KeywordSection {
	return inv.keywords
}

// Lookup finds a record by exact, case-insensitive name
func (inv *Inventory) Lookup(name string) (Record, bool) {
	idx, ok := inv.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Record{}, false
	}
	return inv.records[idx], true
}

// Countries returns the distinct record countries sorted alphabetically
func (inv *Inventory) Countries() []string {
	seen := make(map[string]bool)
	var countries []string
	for _, r := range inv.records {
		if !seen[r.Country] {
			seen[r.Country] = true
			countries = append(countries, r.Country)
		}
	}
	sort.Strings(countries)
	return countries
}
