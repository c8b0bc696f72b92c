package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"artisty_assistant/internal/core"
	"artisty_assistant/internal/grounding"
	"artisty_assistant/internal/inventory"
	"artisty_assistant/internal/metrics"
	"artisty_assistant/internal/nodes"
	"artisty_assistant/pkg"
	"artisty_assistant/src/conversation"
	"artisty_assistant/src/model"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSession is used when the caller does not name a session
const DefaultSession = "default"

// Config wires the tuning knobs into the assistant
type Config struct {
	Assistant model.AssistantConfig
	Provider  string
}

// Assistant owns the inventory, the grounding vocabulary and the session memory, and runs
// every customer message through the turn graph.
type Assistant struct {
	inventory  *inventory.Inventory
	vocabulary *inventory.Vocabulary
	validator  *grounding.Validator
	memory     *conversation.Service
	processor  core.GraphProcessor
	config     Config
	logger     zerolog.Logger
}

// New builds the assistant and its turn graph over chatModel
func New(ctx context.Context, chatModel einomodel.BaseChatModel, inv *inventory.Inventory, memory *conversation.Service, config Config, logger zerolog.Logger) (*Assistant, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if inv == nil {
		inv = inventory.Unavailable()
	}
	if memory == nil {
		return nil, fmt.Errorf("conversation memory is required")
	}

	log := logger.With().Str("component", "assistant").Logger()
	vocab := inventory.BuildVocabulary(inv)

	opts := []grounding.Option{
		grounding.WithStrict(config.Assistant.StrictKeywordMatch),
		grounding.WithLogger(logger),
		grounding.WithRejectionHook(func(kind grounding.Kind, _ string) {
			metrics.GroundingRejection(string(kind))
		}),
	}
	if len(config.Assistant.Regions) > 0 {
		opts = append(opts, grounding.WithRegions(config.Assistant.Regions))
	}
	validator := grounding.New(inv, vocab, opts...)

	processor, err := buildGraph(ctx, chatModel, inv, validator, memory, config, logger)
	if err != nil {
		return nil, err
	}

	log.Info().
		Bool("inventory_loaded", inv.Available()).
		Int("artworks", inv.Count()).
		Int("vocabulary", vocab.Len()).
		Bool("strict_keywords", validator.Strict()).
		Str("memory", memory.Backend()).
		Msg("Assistant initialized")

	return &Assistant{
		inventory:  inv,
		vocabulary: vocab,
		validator:  validator,
		memory:     memory,
		processor:  processor,
		config:     config,
		logger:     log,
	}, nil
}

func buildGraph(ctx context.Context, chatModel einomodel.BaseChatModel, inv *inventory.Inventory, validator *grounding.Validator,
	memory *conversation.Service, config Config, logger zerolog.Logger) (*core.DefaultGraphProcessor, error) {
	cfg := config.Assistant
	onFailure := nodes.FailureHook(metrics.LLMFailure)

	searcher, err := nodes.NewSearcher(ctx, chatModel, inv, validator, memory, nodes.SearchConfig{
		MaxResults:      cfg.MaxSearchResults,
		DiversityWindow: cfg.DiversityWindow,
		ContextMessages: cfg.SearchContextMessages,
	}, onFailure, logger)
	if err != nil {
		return nil, err
	}

	tools, err := nodes.NewToolset(inv, validator, searcher)
	if err != nil {
		return nil, err
	}

	reply, err := nodes.NewReplyNode(ctx, chatModel, nodes.ReplyConfig{
		Tools:         tools,
		Validator:     validator,
		InventoryText: inv.Text,
		MaxIterations: cfg.MaxToolIterations,
		OnFailure:     onFailure,
	}, logger)
	if err != nil {
		return nil, err
	}

	names := inv.Names()
	if n := cfg.IntentFallbackNames; n > 0 && len(names) > n {
		names = names[:n]
	}
	intent, err := nodes.NewIntentNode(ctx, chatModel, names, onFailure, logger)
	if err != nil {
		return nil, err
	}

	extract, err := nodes.NewExtractNode(ctx, chatModel, validator, onFailure, logger)
	if err != nil {
		return nil, err
	}

	processor := core.NewGraphProcessor(core.DefaultFlow(), logger.With().Str("component", "graph").Logger())
	for _, node := range []core.Node{
		reply,
		intent,
		extract,
		nodes.NewActionsNode(validator, logger),
		nodes.NewMemoryNode(memory, logger),
	} {
		if err := processor.AddNode(node); err != nil {
			return nil, fmt.Errorf("failed to register node: %w", err)
		}
	}
	return processor, nil
}

// Handle runs one customer message. It never fails; upstream problems come back as a
// degraded turn whose Err says what went wrong.
func (a *Assistant) Handle(ctx context.Context, sessionID, message string) pkg.ConversationTurn {
	return a.handle(ctx, sessionID, message, false)
}

func (a *Assistant) handle(ctx context.Context, sessionID, message string, stream bool) pkg.ConversationTurn {
	start := time.Now()
	sessionID = normalizeSession(sessionID)
	turnID := uuid.NewString()
	log := a.logger.With().Str("session_id", sessionID).Str("turn_id", turnID).Logger()

	unlock := a.memory.Lock(sessionID)
	defer unlock()

	history, err := a.memory.History(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("Conversation history unavailable")
	}

	out, err := a.processor.Execute(ctx, core.ProcessorInput{
		TurnID:      turnID,
		SessionID:   sessionID,
		UserMessage: message,
		History:     history,
	})

	var turn pkg.ConversationTurn
	if err != nil {
		upstream := pkg.ClassifyLLMError("turn", err)
		metrics.LLMFailure("turn", upstream.Kind)
		log.Error().Err(err).Msg("Turn failed")
		turn = degradedTurn(turnID, sessionID, message, upstream)
	} else {
		turn = freeze(out.Turn)
		if len(out.Errors) > 0 {
			log.Debug().Strs("errors", out.Errors).Msg("Turn completed with node errors")
		}
	}
	turn.CreatedAt = start

	elapsed := time.Since(start)
	metrics.ObserveTurn(turn, stream, elapsed)

	level := zerolog.InfoLevel
	threshold := a.config.Assistant.SlowTurnThreshold
	slow := threshold > 0 && elapsed > threshold
	if slow {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Bool("slow", slow).
		Str("intent", string(turn.Intent)).
		Int("artworks", len(turn.Artworks)).
		Int("actions", len(turn.Actions)).
		Bool("degraded", turn.Degraded).
		Dur("duration", elapsed).
		Msg("Turn handled")

	return turn
}

// Health reports whether the inventory loaded, the pipeline is ready and the memory
// backend answers
func (a *Assistant) Health(ctx context.Context) pkg.HealthStatus {
	reachable := true
	if err := a.memory.Ping(ctx); err != nil {
		a.logger.Warn().Err(err).Str("memory", a.memory.Backend()).Msg("Memory backend unreachable")
		reachable = false
	}

	return pkg.HealthStatus{
		Status:          "healthy",
		InventoryLoaded: a.inventory.Available(),
		AssistantReady:  a.processor != nil,
		InventoryLength: a.inventory.Length(),
		ArtworkCount:    a.inventory.Count(),
		MemoryBackend:   a.memory.Backend(),
		MemoryReachable: reachable,
		Provider:        a.config.Provider,
	}
}

// Validator exposes the grounding rules used by the assistant
func (a *Assistant) Validator() *grounding.Validator {
	return a.validator
}

func normalizeSession(sessionID string) string {
	if s := strings.TrimSpace(sessionID); s != "" {
		return s
	}
	return DefaultSession
}

func freeze(state *core.TurnState) pkg.ConversationTurn {
	turn := pkg.ConversationTurn{
		ID:          state.TurnID,
		SessionID:   state.SessionID,
		UserMessage: state.UserMessage,
		Reply:       state.Reply,
		Intent:      state.Intent,
		Artworks:    state.Artworks,
		Actions:     state.Actions,
		ToolCalls:   state.ToolCalls,
		Degraded:    state.Degraded,
		Err:         state.Err,
	}
	if turn.Intent == "" {
		turn.Intent = pkg.IntentGeneralInfo
	}
	if turn.Degraded {
		turn.Intent = pkg.IntentGeneralInfo
		turn.Artworks = nil
		turn.Actions = nil
	}
	if turn.Artworks == nil {
		turn.Artworks = []string{}
	}
	if turn.Actions == nil {
		turn.Actions = []pkg.Action{}
	}
	return turn
}

func degradedTurn(turnID, sessionID, message string, err error) pkg.ConversationTurn {
	return pkg.ConversationTurn{
		ID:          turnID,
		SessionID:   sessionID,
		UserMessage: message,
		Reply:       nodes.ApologyReply,
		Intent:      pkg.IntentGeneralInfo,
		Artworks:    []string{},
		Actions:     []pkg.Action{},
		Degraded:    true,
		Err:         err,
	}
}
