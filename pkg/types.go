package pkg

import (
	"strings"
	"time"
)

// Gallery assistant core types shared by the pipeline, the orchestrator and the HTTP layer

// Intent is the classification of an assistant reply
type Intent string

const (
	IntentSuggestion  Intent = "suggestion"
	IntentGeneralInfo Intent = "general_info"
	IntentBoth        Intent = "both"
)

// ParseIntent normalizes a model-produced label. "art_suggestion" is accepted as an alias
// of "suggestion" because the classifier prompt uses that wording.
func ParseIntent(label string) (Intent, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	cleaned = strings.Trim(cleaned, "\"'`.!, \n\t")

	switch cleaned {
	case "suggestion", "art_suggestion":
		return IntentSuggestion, true
	case "general_info":
		return IntentGeneralInfo, true
	case "both":
		return IntentBoth, true
	}
	return IntentGeneralInfo, false
}

// WantsArtworks reports whether a turn with this intent should surface artwork names
func (i Intent) WantsArtworks() bool {
	return i == IntentSuggestion || i == IntentBoth
}

// ActionType identifies a UI control signal executed by the storefront
type ActionType string

const (
	ActionSearch    ActionType = "search"
	ActionScroll    ActionType = "scroll"
	ActionQuickView ActionType = "quick_view"
	ActionAddToCart ActionType = "add_to_cart"
	ActionNavigate  ActionType = "navigate"
	ActionCheckout  ActionType = "checkout"
)

// Imperative actions are explicit user commands; they suppress the automatic search
func (t ActionType) Imperative() bool {
	switch t {
	case ActionQuickView, ActionAddToCart, ActionNavigate, ActionCheckout:
		return true
	}
	return false
}

const (
	DestinationCart = "cart"
	DestinationHome = "home"

	ScrollTargetCollection = "art-collection"
	CheckoutStart          = "start"
)

// Action is one web action sent to the frontend as {type, value}
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value"`
}

func SearchAction(term string) Action { return Action{Type: ActionSearch, Value: term} }

func ScrollAction(target string) Action { return Action{Type: ActionScroll, Value: target} }

func QuickViewAction(name string) Action { return Action{Type: ActionQuickView, Value: name} }

func AddToCartAction(name string) Action { return Action{Type: ActionAddToCart, Value: name} }

func NavigateAction(destination string) Action {
	return Action{Type: ActionNavigate, Value: destination}
}

func CheckoutAction() Action { return Action{Type: ActionCheckout, Value: CheckoutStart} }

// NormalizeDestination coerces a navigation target into the closed set {cart, home}.
// ok is false when the input was empty and the action should be dropped.
func NormalizeDestination(destination string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(destination))
	switch d {
	case "":
		return "", false
	case DestinationCart:
		return DestinationCart, true
	default:
		return DestinationHome, true
	}
}

// ToolName is the closed set of tools the reply pass may call
type ToolName string

const (
	ToolSearchInventory ToolName = "search_inventory"
	ToolListCountries   ToolName = "list_countries"
	ToolArtworkDetails  ToolName = "get_artwork_details"
	ToolQuickView       ToolName = "quick_view"
	ToolAddToCart       ToolName = "add_to_cart"
	ToolNavigate        ToolName = "navigate"
	ToolCheckout        ToolName = "checkout"
)

// ParseToolName resolves a model-supplied tool name, including legacy aliases
func ParseToolName(name string) (ToolName, bool) {
	switch strings.TrimSpace(name) {
	case string(ToolSearchInventory):
		return ToolSearchInventory, true
	case string(ToolListCountries):
		return ToolListCountries, true
	case string(ToolArtworkDetails):
		return ToolArtworkDetails, true
	case string(ToolQuickView), "quick_view_artwork":
		return ToolQuickView, true
	case string(ToolAddToCart):
		return ToolAddToCart, true
	case string(ToolNavigate):
		return ToolNavigate, true
	case string(ToolCheckout), "proceed_to_checkout":
		return ToolCheckout, true
	}
	return "", false
}

// ToolCall is a tool invocation recorded during the reply pass, with decoded arguments
type ToolCall struct {
	Name        ToolName `json:"name"`
	Query       string   `json:"query,omitempty"`
	ArtworkName string   `json:"artwork_name,omitempty"`
	Destination string   `json:"destination,omitempty"`
	// Artworks holds the validated names returned by search_inventory
	Artworks []string `json:"artworks,omitempty"`
}

// ConversationTurn is the immutable result of handling one customer message
type ConversationTurn struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	UserMessage string     `json:"user_message"`
	Reply       string     `json:"reply"`
	Intent      Intent     `json:"intent"`
	Artworks    []string   `json:"artworks"`
	Actions     []Action   `json:"actions"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	Degraded    bool       `json:"degraded"`
	CreatedAt   time.Time  `json:"created_at"`

	// Err is the upstream failure behind a degraded turn
	Err error `json:"-"`
}

// ChatRequest is the JSON body accepted by the chat endpoints
type ChatRequest struct {
	Message   string `json:"message"`
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// Content returns the message, falling back to the "text" synonym
func (r ChatRequest) Content() string {
	if msg := strings.TrimSpace(r.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.Text)
}

// ChatResponse is the non-streaming reply body
type ChatResponse struct {
	Response          string   `json:"response"`
	WebActions        []Action `json:"web_actions"`
	Intent            Intent   `json:"intent"`
	SuggestedArtworks []string `json:"suggested_artworks"`
	Status            string   `json:"status"`
	Success           bool     `json:"success"`
	SessionID         string   `json:"session_id,omitempty"`
}

// StreamEvent is one server-sent event of the streaming reply
type StreamEvent struct {
	Chunk             string   `json:"chunk"`
	IsComplete        bool     `json:"is_complete"`
	WebActions        []Action `json:"web_actions"`
	Intent            *Intent  `json:"intent"`
	SuggestedArtworks []string `json:"suggested_artworks"`
	FullResponse      *string  `json:"full_response"`
	ActionsOnly       bool     `json:"actions_only,omitempty"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Success bool   `json:"success"`
}

// HealthStatus reports startup state to operators
type HealthStatus struct {
	Status          string `json:"status"`
	InventoryLoaded bool   `json:"inventory_loaded"`
	AssistantReady  bool   `json:"assistant_ready"`
	InventoryLength int    `json:"inventory_length"`
	ArtworkCount    int    `json:"artwork_count"`
	MemoryBackend   string `json:"memory_backend"`
	MemoryReachable bool   `json:"memory_reachable"`
	Provider        string `json:"provider"`
}
