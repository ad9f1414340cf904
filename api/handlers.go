package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gridiron/pkg/agent"
	"github.com/papercomputeco/gridiron/pkg/debugtrace"
	"github.com/papercomputeco/gridiron/pkg/sse"
)

// DefaultActorID is used when a request names no actor.
const DefaultActorID = "default-user"

// PingResponse is the health check body.
type PingResponse struct {
	Status           string `json:"status"`
	TimeOfLastUpdate int64  `json:"time_of_last_update"`
}

// InvocationRequest is the body of POST /invocations.
type InvocationRequest struct {
	Prompt    string `json:"prompt"`
	Debug     bool   `json:"debug,omitempty"`
	Stream    bool   `json:"stream,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// InvocationResponse is the non-streaming answer body.
type InvocationResponse struct {
	Success   bool               `json:"success"`
	Prompt    string             `json:"prompt"`
	Response  string             `json:"response"`
	Timestamp int64              `json:"timestamp"`
	Debug     []debugtrace.Entry `json:"debug,omitempty"`
}

// DeltaEvent is the data of an SSE "delta" event.
type DeltaEvent struct {
	Text string `json:"text"`
}

// DoneEvent is the data of the terminal SSE "done" event.
type DoneEvent struct {
	StopReason string             `json:"stopReason"`
	FullText   string             `json:"fullText"`
	Debug      []debugtrace.Entry `json:"debug,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(PingResponse{
		Status:           "Healthy",
		TimeOfLastUpdate: s.now().Unix(),
	})
}

// parseInvocation decodes the body and fills default identities.
func (s *Server) parseInvocation(body []byte) (*InvocationRequest, error) {
	var req InvocationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("%w: prompt is empty", ErrValidation)
	}

	if req.ActorID == "" {
		req.ActorID = DefaultActorID
	}
	if req.SessionID == "" {
		req.SessionID = "session-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	return &req, nil
}

func (s *Server) handleInvocations(c *fiber.Ctx) error {
	req, err := s.parseInvocation(c.Body())
	if err != nil {
		s.logger.Debug("rejected invocation", "error", err)
		if errors.Is(err, ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody(MissingPromptMessage))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
	}

	in := agent.Input{
		Prompt:    req.Prompt,
		ActorID:   req.ActorID,
		SessionID: req.SessionID,
	}

	s.logger.Info("received invocation",
		"actor_id", in.ActorID,
		"session_id", in.SessionID,
		"stream", req.Stream,
		"debug", req.Debug,
	)

	if req.Stream {
		return s.streamInvocation(c, req, in)
	}

	trace := debugtrace.New()
	ctx := debugtrace.WithTrace(c.UserContext(), trace)

	answer, err := s.agent.Answer(ctx, in)
	if err != nil {
		s.logger.Error("invocation failed",
			"actor_id", in.ActorID,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
	}

	resp := InvocationResponse{
		Success:   true,
		Prompt:    req.Prompt,
		Response:  answer.Text,
		Timestamp: s.now().Unix(),
	}
	if req.Debug {
		resp.Debug = trace.Entries()
	}
	return c.JSON(resp)
}

// streamInvocation answers over SSE. The body writer outlives the handler,
// so the agent runs on its own context, cancelled when the client goes away.
func (s *Server) streamInvocation(c *fiber.Ctx, req *InvocationRequest, in agent.Input) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	trace := debugtrace.New()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(debugtrace.WithTrace(context.Background(), trace))
		defer cancel()

		out := sse.NewWriter(w)
		clientGone := false

		for ev := range s.agent.Stream(ctx, in) {
			if clientGone {
				continue
			}

			var err error
			switch ev.Type {
			case agent.EventDelta:
				err = out.WriteJSON(string(agent.EventDelta), DeltaEvent{Text: ev.Text})
			case agent.EventDone:
				done := DoneEvent{StopReason: ev.StopReason, FullText: ev.FullText}
				if req.Debug {
					done.Debug = trace.Entries()
				}
				err = out.WriteJSON(string(agent.EventDone), done)
			case agent.EventError:
				s.logger.Error("streamed invocation failed",
					"actor_id", in.ActorID,
					"error", ev.Err,
				)
				err = out.WriteJSON(string(agent.EventError), errorBody(ev.Err.Error()))
			}

			if err != nil {
				s.logger.Warn("stream client disconnected",
					"actor_id", in.ActorID,
					"error", err,
				)
				clientGone = true
				cancel()
			}
		}
	})

	return nil
}
