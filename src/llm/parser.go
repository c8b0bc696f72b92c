package llm

import (
	"fmt"
	"regexp"
	"strings"

	"artisty_assistant/pkg"

	"github.com/bytedance/sonic"
)

const maxExtractedNameWords = 4

var (
	numberingPattern = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletPattern    = regexp.MustCompile(`^[-*•]\s+`)

	quickViewMarker = regexp.MustCompile(`QUICK_VIEW:\s*([^\n.!?]+)`)
	addToCartMarker = regexp.MustCompile(`ADD_TO_CART:\s*([^\n.!?]+)`)
	searchMarker    = regexp.MustCompile(`SEARCH_TRIGGER:\s*"?([^\s".!?,]+)"?`)
	flagMarkers     = regexp.MustCompile(`GO_TO_CART|GO_TO_HOME|PROCEED_TO_CHECKOUT`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// ParseIntentLabel reads the classifier answer. The label may be quoted or followed by
// an explanation; only the first word counts.
func ParseIntentLabel(content string) (pkg.Intent, bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return pkg.IntentGeneralInfo, false
	}
	if intent, ok := pkg.ParseIntent(content); ok {
		return intent, true
	}
	return pkg.ParseIntent(fields[0])
}

// ParseExtraction turns the one-name-per-line answer into candidate names.
// Names are not validated here.
func ParseExtraction(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || strings.EqualFold(strings.Trim(trimmed, `"'.`), "NONE") {
		return nil
	}

	var names []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		line = numberingPattern.ReplaceAllString(line, "")
		line = bulletPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(line, "*\"'`"))
		if line == "" || strings.EqualFold(line, "NONE") {
			continue
		}
		if len(strings.Fields(line)) > maxExtractedNameWords {
			continue
		}
		names = append(names, line)
	}
	return names
}

// SearchResult is the JSON answer of the inventory search pass
type SearchResult struct {
	Response string   `json:"response"`
	Artworks []string `json:"artworks"`
	Count    int      `json:"count"`
}

type rawSearchResult struct {
	Response string `json:"response"`
	Artworks any    `json:"artworks"`
	Count    int    `json:"count"`
}

// ParseSearchResult decodes the search answer. Artworks may come back as a list or as a
// comma separated string. Undecodable output wraps pkg.ErrMalformedCompletion.
func ParseSearchResult(content string) (SearchResult, error) {
	body := stripCodeFence(content)

	var raw rawSearchResult
	if err := sonic.UnmarshalString(body, &raw); err != nil {
		return SearchResult{}, fmt.Errorf("%w: search result: %v", pkg.ErrMalformedCompletion, err)
	}

	result := SearchResult{Response: strings.TrimSpace(raw.Response), Count: raw.Count}
	switch artworks := raw.Artworks.(type) {
	case []any:
		for _, a := range artworks {
			if name, ok := a.(string); ok && strings.TrimSpace(name) != "" {
				result.Artworks = append(result.Artworks, strings.TrimSpace(name))
			}
		}
	case string:
		for _, name := range strings.Split(artworks, ",") {
			if name = strings.TrimSpace(name); name != "" {
				result.Artworks = append(result.Artworks, name)
			}
		}
	}
	return result, nil
}

func stripCodeFence(content string) string {
	body := strings.TrimSpace(content)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimPrefix(body, "json")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// Markers are the text control tokens used by models without tool calling
type Markers struct {
	QuickView string
	AddToCart string
	Search    string
	GoToCart  bool
	GoToHome  bool
	Checkout  bool
}

func (m Markers) Empty() bool {
	return m == Markers{}
}

// ParseMarkers extracts the control markers and returns the reply with them removed
func ParseMarkers(text string) (Markers, string) {
	var m Markers

	if match := quickViewMarker.FindStringSubmatch(text); match != nil {
		m.QuickView = strings.TrimSpace(match[1])
	}
	if match := addToCartMarker.FindStringSubmatch(text); match != nil {
		m.AddToCart = strings.TrimSpace(match[1])
	}
	if match := searchMarker.FindStringSubmatch(text); match != nil {
		m.Search = strings.TrimSpace(match[1])
	}
	m.GoToCart = strings.Contains(text, "GO_TO_CART")
	m.GoToHome = strings.Contains(text, "GO_TO_HOME")
	m.Checkout = strings.Contains(text, "PROCEED_TO_CHECKOUT")

	if m.Empty() {
		return m, text
	}

	cleaned := quickViewMarker.ReplaceAllString(text, "")
	cleaned = addToCartMarker.ReplaceAllString(cleaned, "")
	cleaned = searchMarker.ReplaceAllString(cleaned, "")
	cleaned = flagMarkers.ReplaceAllString(cleaned, "")
	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	return m, strings.TrimSpace(cleaned)
}
