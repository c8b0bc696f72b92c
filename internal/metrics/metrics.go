package metrics

import (
	"time"

	"artisty_assistant/pkg"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssistantTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of conversation turns handled",
		},
		[]string{"intent", "degraded"},
	)

	AssistantLLMFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_llm_failures_total",
			Help: "Total number of failed LLM calls",
		},
		[]string{"pass", "kind"},
	)

	AssistantGroundingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_grounding_rejections_total",
			Help: "Total number of model-produced tokens rejected by grounding",
		},
		[]string{"kind"},
	)

	AssistantTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "Duration of conversation turns in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		},
		[]string{"stream"},
	)

	AssistantActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_web_actions_total",
			Help: "Total number of web actions sent to the storefront",
		},
		[]string{"type"},
	)
)

// ObserveTurn records one finished turn
func ObserveTurn(turn pkg.ConversationTurn, stream bool, elapsed time.Duration) {
	degraded := "false"
	if turn.Degraded {
		degraded = "true"
	}
	AssistantTurns.WithLabelValues(string(turn.Intent), degraded).Inc()

	mode := "false"
	if stream {
		mode = "true"
	}
	AssistantTurnDuration.WithLabelValues(mode).Observe(elapsed.Seconds())

	for _, action := range turn.Actions {
		AssistantActions.WithLabelValues(string(action.Type)).Inc()
	}
}

func LLMFailure(pass string, kind pkg.UpstreamKind) {
	AssistantLLMFailures.WithLabelValues(pass, string(kind)).Inc()
}

func GroundingRejection(kind string) {
	AssistantGroundingRejections.WithLabelValues(kind).Inc()
}
