package grounding

import (
	"strings"

	"artisty_assistant/internal/inventory"

	"github.com/rs/zerolog"
)

const minCandidateLength = 3

// Kind tells what a rejected candidate was supposed to be
type Kind string

const (
	KindKeyword Kind = "keyword"
	KindArtwork Kind = "artwork"
)

// RejectionHook observes every dropped candidate
type RejectionHook func(kind Kind, candidate string)

// Validator grounds model-produced words and names in the inventory. A value that does not
// survive validation never reaches an action.
type Validator struct {
	inv     *inventory.Inventory
	vocab   *inventory.Vocabulary
	regions map[string][]string
	strict  bool
	logger  zerolog.Logger
	onDrop  RejectionHook

	terms      []string
	names      []string
	namesLower []string
	countries  map[string]string
}

type Option func(*Validator)

// WithStrict disables the substring stage of keyword validation. Artwork names keep
// partial matching.
func WithStrict(strict bool) Option {
	return func(v *Validator) { v.strict = strict }
}

func WithRegions(regions map[string][]string) Option {
	return func(v *Validator) {
		if len(regions) > 0 {
			v.regions = normalizeRegions(regions)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

func WithRejectionHook(hook RejectionHook) Option {
	return func(v *Validator) { v.onDrop = hook }
}

func New(inv *inventory.Inventory, vocab *inventory.Vocabulary, opts ...Option) *Validator {
	v := &Validator{
		inv:       inv,
		vocab:     vocab,
		regions:   normalizeRegions(DefaultRegions),
		logger:    zerolog.Nop(),
		countries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.terms = vocab.Terms()
	v.names = inv.Names()
	v.namesLower = make([]string, len(v.names))
	for i, n := range v.names {
		v.namesLower[i] = strings.ToLower(n)
	}
	for _, c := range inv.Countries() {
		v.countries[strings.ToLower(c)] = c
	}
	return v
}

func normalizeRegions(regions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(regions))
	for region, countries := range regions {
		out[strings.ToLower(strings.TrimSpace(region))] = countries
	}
	return out
}

// Strict reports whether partial keyword matching is disabled
func (v *Validator) Strict() bool {
	return v.strict
}

// ValidateKeyword returns the vocabulary term a search keyword resolves to.
// Stages: exact match, region word mapped to an inventory country, then substring
// containment in either direction where the first vocabulary term wins.
func (v *Validator) ValidateKeyword(candidate string) (string, bool) {
	c := normalize(candidate)
	if len(c) < minCandidateLength {
		v.reject(KindKeyword, candidate)
		return "", false
	}

	if v.vocab.Contains(c) {
		return c, true
	}

	for _, country := range v.ExpandRegion(c) {
		if term := strings.ToLower(country); v.vocab.Contains(term) {
			return term, true
		}
	}

	if !v.strict {
		if term, ok := v.partial(c, v.terms, v.terms); ok {
			return term, true
		}
	}

	v.reject(KindKeyword, candidate)
	return "", false
}

// ValidateArtworkName returns the canonical inventory spelling of an artwork name
func (v *Validator) ValidateArtworkName(candidate string) (string, bool) {
	c := normalize(candidate)
	if len(c) < minCandidateLength {
		v.reject(KindArtwork, candidate)
		return "", false
	}

	if record, ok := v.inv.Lookup(c); ok {
		return record.Name, true
	}

	if name, ok := v.partial(c, v.namesLower, v.names); ok {
		return name, true
	}

	v.reject(KindArtwork, candidate)
	return "", false
}

// ValidateArtworkNames validates each candidate and drops duplicates, keeping first order
func (v *Validator) ValidateArtworkNames(candidates []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, candidate := range candidates {
		name, ok := v.ValidateArtworkName(candidate)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// ExpandRegion returns the inventory countries covered by a region word, in table order
func (v *Validator) ExpandRegion(term string) []string {
	members, ok := v.regions[normalize(term)]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, member := range members {
		country, present := v.countries[strings.ToLower(member)]
		if present && !seen[country] {
			seen[country] = true
			out = append(out, country)
		}
	}
	return out
}

func (v *Validator) partial(candidate string, lowered, values []string) (string, bool) {
	for i, entry := range lowered {
		if strings.Contains(entry, candidate) || strings.Contains(candidate, entry) {
			return values[i], true
		}
	}
	return "", false
}

func (v *Validator) reject(kind Kind, candidate string) {
	v.logger.Debug().
		Str("kind", string(kind)).
		Str("candidate", candidate).
		Msg("Grounding rejected candidate")
	if v.onDrop != nil {
		v.onDrop(kind, candidate)
	}
}

func normalize(candidate string) string {
	c := strings.ToLower(strings.TrimSpace(candidate))
	c = strings.Trim(c, "\"'`*.,!?:;()[]")
	return strings.Join(strings.Fields(c), " ")
}
