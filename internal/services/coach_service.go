// Package services – CoachService
//
// This file implements CoachService, the orchestrator behind the coaching
// conversation. It resolves the per-(user, client) session, persists the
// human turn, gathers context in parallel (history window, role prompt,
// fresh client profile, document excerpt), streams the assistant reply
// delta-by-delta, and persists the reply once complete.
//
// Streaming delivery is transport-agnostic: the handler supplies an emitter
// and CoachService decides which events fire. After the request context is
// canceled nothing is emitted and nothing is persisted.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// client/user identifiers, never message content.

package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/authz"
	"github.com/mwierda/coachhub-backend/internal/docctx"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// User-facing messages. Everything the browser may display is Dutch;
// diagnostic detail stays in the logs.
const (
	MsgUnauthorized     = "Niet geautoriseerd"
	MsgClientNotFound   = "Cliënt niet gevonden."
	MsgMessageRequired  = "Bericht is verplicht."
	MsgCoachTimeout     = "Coach reageerde niet binnen de ingestelde tijd."
	MsgCoachUnavailable = "Coach is tijdelijk niet bereikbaar."
)

// SSE event names emitted during a coach stream.
const (
	EventMeta  = "meta"
	EventDelta = "delta"
	EventDone  = "done"
	EventError = "error"
)

// StreamEmitter delivers one named event to the transport. CoachService
// never calls it after the request context is canceled.
type StreamEmitter func(event string, payload any)

// MetaEvent opens a stream: identifiers the client needs to correlate
// the conversation.
type MetaEvent struct {
	RequestID string `json:"requestId"`
	ClientID  string `json:"clientId"`
	SessionID string `json:"sessionId"`
}

// DeltaEvent carries one reply fragment.
type DeltaEvent struct {
	Text string `json:"text"`
}

// DoneEvent closes a successful stream. DocumentContextSources is only
// populated when debug exposure is enabled.
type DoneEvent struct {
	RequestID              string          `json:"requestId"`
	ClientID               string          `json:"clientId"`
	ResponseID             string          `json:"responseId"`
	Usage                  ai.Usage        `json:"usage"`
	DocumentContextSources []docctx.Source `json:"documentContextSources,omitempty"`
}

// ErrorEvent closes a failed stream with a user-facing message.
type ErrorEvent struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

// StreamResult summarizes a finished stream for the caller's logging.
type StreamResult struct {
	SessionID    string
	Reply        string
	ResponseID   string
	Usage        ai.Usage
	Sources      []docctx.Source
	ContextChars int
}

// CoachService orchestrates coaching conversations.
type CoachService struct {
	DB   *gorm.DB
	AI   ai.CompletionClient
	Docs *docctx.Retriever

	// Model is the completion model used for coach replies.
	Model string

	// Window bounds how many stored turns are replayed per request.
	Window int

	// DebugDocContext exposes retrieval provenance in the done event.
	DebugDocContext bool
}

// gathered is the joined result of the post-persist parallel reads.
type gathered struct {
	history []domain.Message
	system  string
	sources []docctx.Source
	context string
}

// Stream runs one streamed coach turn. Events are delivered through emit;
// the returned result and error are for the caller's operational logging
// only, every user-visible outcome has already been emitted. A canceled
// request context yields context.Canceled with no terminal event and no
// assistant persist.
func (s *CoachService) Stream(ctx context.Context, requestID string, caller authz.Caller, clientID, message string, emit StreamEmitter) (*StreamResult, error) {
	tr := otel.Tracer("services/CoachService")
	ctx, span := tr.Start(ctx, "Stream",
		trace.WithAttributes(
			attribute.String("client.id", clientID),
			attribute.String("user.id", caller.UserID),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	// Suppress all emission once the requester is gone.
	send := func(event string, payload any) {
		if ctx.Err() != nil {
			return
		}
		emit(event, payload)
	}

	sess, err := repo.GetOrCreateSession(ctx, s.DB, caller.UserID, clientID)
	if err != nil {
		// The access check passed earlier; reaching this means the client
		// vanished in between.
		send(EventError, ErrorEvent{Error: MsgClientNotFound, RequestID: requestID})
		return nil, ErrClientNotFound
	}

	send(EventMeta, MetaEvent{RequestID: requestID, ClientID: clientID, SessionID: sess.ID})

	// The human turn is durable before anything else happens, so a failure
	// beyond this point never loses what the coach typed.
	if _, err := repo.AppendMessage(ctx, s.DB, sess.ID, ai.RoleUser, domain.SourceHuman, message, nil); err != nil {
		send(EventError, ErrorEvent{Error: MsgCoachUnavailable, RequestID: requestID})
		return nil, err
	}

	g, err := s.gather(ctx, caller, sess.ID, clientID, message)
	if err != nil {
		msg := MsgCoachUnavailable
		if errors.Is(err, ErrClientNotFound) {
			msg = MsgClientNotFound
		}
		send(EventError, ErrorEvent{Error: msg, RequestID: requestID})
		return nil, err
	}

	msgs := append([]ai.Message{{Role: ai.RoleSystem, Content: g.system}}, transcriptMessages(g.history)...)

	var reply strings.Builder
	completion, err := s.AI.StreamCompletion(ctx, s.Model, msgs, func(delta string) {
		reply.WriteString(delta)
		send(EventDelta, DeltaEvent{Text: delta})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		msg := MsgCoachUnavailable
		if errors.Is(err, ai.ErrTimeout) {
			msg = MsgCoachTimeout
		}
		send(EventError, ErrorEvent{Error: msg, RequestID: requestID})
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, context.Canceled
	}

	trimmed := strings.TrimSpace(reply.String())
	if trimmed != "" {
		meta := &repo.MessageMeta{
			ResponseID:       completion.ResponseID,
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		}
		if _, err := repo.AppendMessage(ctx, s.DB, sess.ID, ai.RoleAssistant, domain.SourceAI, trimmed, meta); err != nil {
			send(EventError, ErrorEvent{Error: MsgCoachUnavailable, RequestID: requestID})
			return nil, err
		}
	}

	done := DoneEvent{
		RequestID:  requestID,
		ClientID:   clientID,
		ResponseID: completion.ResponseID,
		Usage:      completion.Usage,
	}
	if s.DebugDocContext {
		done.DocumentContextSources = g.sources
	}
	send(EventDone, done)

	return &StreamResult{
		SessionID:    sess.ID,
		Reply:        trimmed,
		ResponseID:   completion.ResponseID,
		Usage:        completion.Usage,
		Sources:      g.sources,
		ContextChars: len(g.context),
	}, nil
}

// Answer runs the same pipeline synchronously: persist the human turn,
// gather context, complete, persist the reply. It returns the reply together
// with the refreshed history window.
func (s *CoachService) Answer(ctx context.Context, caller authz.Caller, clientID, message string) (string, *ai.Completion, []domain.Message, error) {
	tr := otel.Tracer("services/CoachService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(
			attribute.String("client.id", clientID),
			attribute.String("user.id", caller.UserID),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil, nil, ErrEmptyMessage
	}

	sess, err := repo.GetOrCreateSession(ctx, s.DB, caller.UserID, clientID)
	if err != nil {
		return "", nil, nil, ErrClientNotFound
	}
	if _, err := repo.AppendMessage(ctx, s.DB, sess.ID, ai.RoleUser, domain.SourceHuman, message, nil); err != nil {
		return "", nil, nil, err
	}

	g, err := s.gather(ctx, caller, sess.ID, clientID, message)
	if err != nil {
		return "", nil, nil, err
	}

	msgs := append([]ai.Message{{Role: ai.RoleSystem, Content: g.system}}, transcriptMessages(g.history)...)
	replyText, completion, err := s.AI.Complete(ctx, s.Model, msgs)
	if err != nil {
		return "", nil, nil, err
	}

	trimmed := strings.TrimSpace(replyText)
	if trimmed != "" {
		meta := &repo.MessageMeta{
			ResponseID:       completion.ResponseID,
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		}
		if _, err := repo.AppendMessage(ctx, s.DB, sess.ID, ai.RoleAssistant, domain.SourceAI, trimmed, meta); err != nil {
			return "", nil, nil, err
		}
	}

	history, err := repo.GetRecentWindow(ctx, s.DB, sess.ID, s.Window)
	if err != nil {
		return "", nil, nil, err
	}
	return trimmed, completion, history, nil
}

// History returns the recent window for the caller's session with a client.
// The session is created lazily, consistent with the rest of the flow.
func (s *CoachService) History(ctx context.Context, caller authz.Caller, clientID string, limit int) ([]domain.Message, error) {
	if _, err := repo.GetClient(ctx, s.DB, clientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	sess, err := repo.GetOrCreateSession(ctx, s.DB, caller.UserID, clientID)
	if err != nil {
		return nil, err
	}
	return repo.GetRecentWindow(ctx, s.DB, sess.ID, limit)
}

// gather joins the parallel context reads that follow the human-turn
// persist: history window (which now includes that turn), role prompt,
// fresh client profile, and the document excerpt ranked against the
// message. The first failure wins; remaining reads still run to completion.
func (s *CoachService) gather(ctx context.Context, caller authz.Caller, sessionID, clientID, query string) (*gathered, error) {
	var (
		wg      sync.WaitGroup
		history []domain.Message
		stored  *domain.Prompt
		client  *domain.Client
		excerpt *docctx.Excerpt
		errs    [4]error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		history, errs[0] = repo.GetRecentWindow(ctx, s.DB, sessionID, s.Window)
	}()
	go func() {
		defer wg.Done()
		stored, errs[1] = repo.GetPrompt(ctx, s.DB, domain.AgentKindCoach)
	}()
	go func() {
		defer wg.Done()
		client, errs[2] = repo.GetClient(ctx, s.DB, clientID)
		if errors.Is(errs[2], repo.ErrNotFound) {
			errs[2] = ErrClientNotFound
		}
	}()
	go func() {
		defer wg.Done()
		excerpt, errs[3] = s.Docs.Retrieve(ctx, caller, clientID, query)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	base := DefaultCoachPrompt
	if stored != nil {
		base = stored.Content
	}
	return &gathered{
		history: history,
		system:  buildCoachSystemPrompt(base, client, excerpt.ContextText),
		sources: excerpt.Sources,
		context: excerpt.ContextText,
	}, nil
}
