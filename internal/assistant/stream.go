package assistant

import (
	"context"
	"errors"
	"strings"

	"artisty_assistant/pkg"

	"github.com/cloudwego/eino/schema"
)

// Stream runs the turn to completion before any event is produced, so web actions are
// always known ahead of the text. A deadline on ctx degrades the turn like Handle does.
// If ctx is canceled first the turn keeps running in the background and its result is
// dropped.
func (a *Assistant) Stream(ctx context.Context, sessionID, message string) (pkg.ConversationTurn, error) {
	detached, cancel := detach(ctx)
	done := make(chan pkg.ConversationTurn, 1)

	go func() {
		defer cancel()
		done <- a.handle(detached, sessionID, message, true)
	}()

	select {
	case turn := <-done:
		return turn, nil
	case <-ctx.Done():
	}

	// The detached turn shares the deadline, so it is already degrading
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return <-done, nil
	}

	a.logger.Info().Str("session_id", normalizeSession(sessionID)).Msg("Stream abandoned by client")
	return pkg.ConversationTurn{}, ctx.Err()
}

// detach keeps the deadline of ctx but not its cancellation
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithCancel(base)
}

// Events renders a finished turn as stream events: an actions-only event when there are
// actions, then one event per word. The last word event completes the stream and carries
// the intent, the artworks and the full reply. Closing the reader stops the producer.
func Events(turn pkg.ConversationTurn) *schema.StreamReader[pkg.StreamEvent] {
	words := strings.Fields(turn.Reply)
	sr, sw := schema.Pipe[pkg.StreamEvent](len(words) + 1)

	artworks := turn.Artworks
	if artworks == nil {
		artworks = []string{}
	}

	go func() {
		defer sw.Close()

		intent := turn.Intent
		full := turn.Reply

		if len(turn.Actions) > 0 {
			closed := sw.Send(pkg.StreamEvent{
				WebActions:        turn.Actions,
				Intent:            &intent,
				SuggestedArtworks: artworks,
				ActionsOnly:       true,
			}, nil)
			if closed {
				return
			}
		}

		final := pkg.StreamEvent{
			IsComplete:        true,
			WebActions:        []pkg.Action{},
			Intent:            &intent,
			SuggestedArtworks: artworks,
			FullResponse:      &full,
		}

		for i, word := range words {
			event := pkg.StreamEvent{
				Chunk:             word + " ",
				WebActions:        []pkg.Action{},
				SuggestedArtworks: []string{},
			}
			if i == len(words)-1 {
				final.Chunk = event.Chunk
				event = final
			}
			if closed := sw.Send(event, nil); closed {
				return
			}
		}

		if len(words) == 0 {
			sw.Send(final, nil)
		}
	}()

	return sr
}
