package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"artisty_assistant/internal/assistant"
	"artisty_assistant/pkg"

	"github.com/bytedance/sonic"
)

const (
	maxBodyBytes  = 1 << 20
	healthTimeout = 2 * time.Second
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := s.fallback
	if s.assistant != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		status = s.assistant.Health(ctx)
	}
	status.Status = "healthy"
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	turn := s.assistant.Handle(ctx, req.SessionID, req.Content())
	if s.rejectUpstream(w, turn) {
		return
	}

	s.writeJSON(w, http.StatusOK, pkg.ChatResponse{
		Response:          turn.Reply,
		WebActions:        turn.Actions,
		Intent:            turn.Intent,
		SuggestedArtworks: turn.Artworks,
		Status:            statusSuccess,
		Success:           true,
		SessionID:         turn.SessionID,
	})
}

func (s *Server) chatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	turn, err := s.assistant.Stream(ctx, req.SessionID, req.Content())
	if err != nil {
		s.logger.Info().Err(err).Msg("Client left before the reply was ready")
		return
	}
	if s.rejectUpstream(w, turn) {
		return
	}

	events := assistant.Events(turn)
	defer events.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	for {
		event, err := events.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("Stream event failed")
			return
		}

		if err := writeEvent(w, event); err != nil {
			s.logger.Info().Err(err).Msg("Stream write failed, client gone")
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return
		}

		if r.Context().Err() != nil {
			s.logger.Info().Str("session_id", turn.SessionID).Msg("Stream closed by client")
			return
		}
	}
}

func writeEvent(w io.Writer, event pkg.StreamEvent) error {
	payload, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// decode reads and validates the chat request, answering the client itself on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (pkg.ChatRequest, bool) {
	if s.assistant == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Assistant not initialized")
		return pkg.ChatRequest{}, false
	}

	req, err := parseRequest(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Debug().Err(err).Msg("Rejected chat request")
		s.writeError(w, http.StatusBadRequest, inputErrorMessage(err))
		return req, false
	}
	return req, true
}

func parseRequest(body io.Reader) (pkg.ChatRequest, error) {
	var req pkg.ChatRequest

	raw, err := io.ReadAll(body)
	if err != nil {
		return req, fmt.Errorf("%w: %v", pkg.ErrInvalidJSON, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return req, pkg.ErrNoMessage
	}
	if err := sonic.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: %v", pkg.ErrInvalidJSON, err)
	}
	return req, pkg.ValidateMessage(req.Content())
}

func inputErrorMessage(err error) string {
	switch {
	case errors.Is(err, pkg.ErrNoMessage):
		return "No message provided"
	case errors.Is(err, pkg.ErrInvalidJSON):
		return "Invalid JSON"
	case errors.Is(err, pkg.ErrMessageTooLong):
		return fmt.Sprintf("Message too long (max %d characters)", pkg.MaxMessageLength)
	case errors.Is(err, pkg.ErrInvalidEncoding):
		return "Message must be valid UTF-8"
	}
	return "Invalid request"
}

// rejectUpstream answers turns that failed on credentials or quota
func (s *Server) rejectUpstream(w http.ResponseWriter, turn pkg.ConversationTurn) bool {
	upstream, ok := pkg.AsUpstream(turn.Err)
	if !ok || !upstream.OperatorActionable() {
		return false
	}

	switch upstream.Kind {
	case pkg.UpstreamAuth:
		s.logger.Error().Err(upstream).Msg("LLM provider rejected credentials")
		s.writeError(w, http.StatusUnauthorized, "Invalid API key")
	case pkg.UpstreamRateLimit:
		s.logger.Warn().Err(upstream).Msg("LLM provider rate limit hit")
		s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
	}
	return true
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, `{"error":"Internal error","status":"error","success":false}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, pkg.ErrorResponse{Error: message, Status: statusError, Success: false})
}
