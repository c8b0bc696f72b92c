package nodes

import (
	"context"
	"fmt"
	"strings"

	"artisty_assistant/internal/grounding"
	"artisty_assistant/internal/inventory"
	"artisty_assistant/pkg"
	"artisty_assistant/src/conversation"
	"artisty_assistant/src/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const (
	defaultSearchResponse = "I found some artworks that might interest you."
	malformedSearchReply  = "I'm sorry, I couldn't produce a structured recommendation just now. Please rephrase your request or try again."
	noMatchSearchReply    = "I couldn't find any specific artworks related to %s in our inventory. Would you like to explore some alternatives?"
	localSearchReply      = "Here are some artworks from our collection that match %s: %s."
)

// negativePhrases mark a search response that already admits nothing matched
var negativePhrases = []string{"no ", "couldn't", "cannot", "didn't find", "don't have"}

// SearchOutcome is the result of one inventory search pass
type SearchOutcome struct {
	Response string   `json:"response"`
	Artworks []string `json:"artworks"`
}

// SearchConfig tunes the search pass
type SearchConfig struct {
	MaxResults      int
	DiversityWindow int
	ContextMessages int
}

// Searcher runs the LLM-assisted contextual inventory search used by search_inventory
type Searcher struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	inventory *inventory.Inventory
	validator *grounding.Validator
	memory    *conversation.Service
	strategy  conversation.ContextStrategy
	config    SearchConfig
	onFailure FailureHook
	logger    zerolog.Logger
}

// NewSearcher compiles the search chain over the given chat model
func NewSearcher(ctx context.Context, chatModel model.BaseChatModel, inv *inventory.Inventory, validator *grounding.Validator,
	memory *conversation.Service, config SearchConfig, onFailure FailureHook, logger zerolog.Logger) (*Searcher, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(llm.NewSearchTemplate()).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile search chain: %w", err)
	}

	if config.MaxResults <= 0 {
		config.MaxResults = 6
	}
	if config.DiversityWindow <= 0 {
		config.DiversityWindow = 5
	}

	return &Searcher{
		chain:     chain,
		inventory: inv,
		validator: validator,
		memory:    memory,
		strategy:  conversation.NewSearchContextStrategy(config.ContextMessages),
		config:    config,
		onFailure: onFailure,
		logger:    logger.With().Str("component", "search").Logger(),
	}, nil
}

// Search answers a free-text query for the session. Only operator-actionable upstream
// failures are returned; every other failure degrades to the local search.
func (s *Searcher) Search(ctx context.Context, sessionID, query string) (SearchOutcome, error) {
	log := s.logger.With().Str("session_id", sessionID).Str("query", query).Logger()

	history, err := s.memory.Context(ctx, sessionID, s.strategy)
	if err != nil {
		log.Warn().Err(err).Msg("Search context unavailable")
	}
	recent, err := s.memory.RecentRecommendations(ctx, sessionID, s.config.DiversityWindow)
	if err != nil {
		log.Warn().Err(err).Msg("Recommendation history unavailable")
	}

	recentText := "None"
	if len(recent) > 0 {
		recentText = strings.Join(recent, ", ")
	}

	result, err := s.chain.Invoke(ctx, map[string]any{
		llm.VarQuery:     query,
		llm.VarContext:   history,
		llm.VarRecent:    recentText,
		llm.VarInventory: s.inventory.Text(),
		llm.VarNames:     strings.Join(s.inventory.Names(), "\n"),
	})

	var outcome SearchOutcome
	if err != nil {
		upstream := pkg.ClassifyLLMError("search", err)
		s.onFailure.call("search", upstream.Kind)
		if upstream.OperatorActionable() {
			return SearchOutcome{}, upstream
		}
		log.Warn().Err(upstream).Msg("Search model failed, using local search")
		outcome = s.local(ctx, query)
	} else {
		outcome = s.fromCompletion(query, result.Content, log)
	}

	if len(outcome.Artworks) > 0 {
		if err := s.memory.Recommend(ctx, sessionID, outcome.Artworks); err != nil {
			log.Warn().Err(err).Msg("Failed to record recommendations")
		}
	}

	log.Info().Int("artworks", len(outcome.Artworks)).Msg("Search completed")
	return outcome, nil
}

func (s *Searcher) fromCompletion(query, content string, log zerolog.Logger) SearchOutcome {
	parsed, err := llm.ParseSearchResult(content)
	if err != nil {
		s.onFailure.call("search", pkg.UpstreamMalformed)
		log.Warn().Err(err).Msg("Search completion was not valid JSON")
		return SearchOutcome{Response: malformedSearchReply}
	}

	artworks := s.validator.ValidateArtworkNames(parsed.Artworks)
	if len(artworks) > s.config.MaxResults {
		artworks = artworks[:s.config.MaxResults]
	}

	response := strings.TrimSpace(parsed.Response)
	if len(artworks) == 0 && !admitsNoMatch(response) {
		response = fmt.Sprintf(noMatchSearchReply, query)
	}
	if response == "" {
		response = defaultSearchResponse
	}

	return SearchOutcome{Response: response, Artworks: artworks}
}

// local is the deterministic search used when the model is unreachable
func (s *Searcher) local(ctx context.Context, query string) SearchOutcome {
	records := s.inventory.Search(ctx, query, s.validator, s.config.MaxResults)
	if len(records) == 0 {
		return SearchOutcome{Response: fmt.Sprintf(noMatchSearchReply, query)}
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return SearchOutcome{
		Response: fmt.Sprintf(localSearchReply, query, strings.Join(names, ", ")),
		Artworks: names,
	}
}

func admitsNoMatch(response string) bool {
	lowered := strings.ToLower(response)
	for _, phrase := range negativePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
