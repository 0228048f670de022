// Coach HTTP handlers.
//
// This file exposes the coaching conversation endpoints:
//   - POST /coach/{clientId}/stream  (SSE: meta → delta* → done | error)
//   - POST /coach/{clientId}         (synchronous reply)
//   - GET  /coach/{clientId}         (history window)
//
// Handlers are transport-thin: they authenticate and authorize, validate
// input, and hand the conversation to the CoachService. For the SSE route
// all pre-stream failures are plain JSON (401/403/404/400); once the stream
// is open every outcome travels as an SSE event on the 200 response, and the
// real outcome is recorded in logs and metrics only.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/authz"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/http/middleware"
	"github.com/mwierda/coachhub-backend/internal/repo"
	"github.com/mwierda/coachhub-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// CoachService defines the conversation operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CoachService interface {
	// Stream runs one streamed turn, delivering events through emit.
	Stream(ctx context.Context, requestID string, caller authz.Caller, clientID, message string, emit services.StreamEmitter) (*services.StreamResult, error)
	// Answer runs one synchronous turn and returns the refreshed history.
	Answer(ctx context.Context, caller authz.Caller, clientID, message string) (string, *ai.Completion, []domain.Message, error)
	// History returns the recent window for the caller's session.
	History(ctx context.Context, caller authz.Caller, clientID string, limit int) ([]domain.Message, error)
}

// ClientService defines client profile operations consumed by HTTP handlers.
type ClientService interface {
	List(ctx context.Context) ([]domain.Client, error)
	Create(ctx context.Context, name, focusArea, summary string, goals []string, avatarURL string) (*domain.Client, error)
	Update(ctx context.Context, id string, upd repo.ClientUpdate) (*domain.Client, error)
}

// DocumentService defines document intake operations consumed by HTTP handlers.
type DocumentService interface {
	List(ctx context.Context, clientID string) ([]domain.Document, error)
	Upload(ctx context.Context, clientID, originalName, mimeType string, data []byte) (*services.UploadResult, error)
}

// PromptService defines prompt management operations consumed by HTTP handlers.
type PromptService interface {
	Get(ctx context.Context, kind string) (*services.PromptView, error)
	Update(ctx context.Context, kind, content string) (*services.PromptView, error)
	Refine(ctx context.Context, kind string) (*services.RefineResult, error)
}

// OverseerService defines the admin thread operations consumed by HTTP handlers.
type OverseerService interface {
	Thread(ctx context.Context) ([]domain.Message, error)
	Ask(ctx context.Context, message string) (string, *ai.Completion, []domain.Message, error)
}

// ReportService defines report operations consumed by HTTP handlers.
type ReportService interface {
	List(ctx context.Context, clientID string, limit int) ([]domain.Report, error)
	Generate(ctx context.Context, caller authz.Caller, clientID string) (*services.GeneratedReport, error)
}

// FeedbackService defines feedback capture consumed by HTTP handlers.
type FeedbackService interface {
	Submit(ctx context.Context, messageID, agentKind, feedback string) (*domain.AgentFeedback, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the public API. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic; the DB handle is used only for authorization checks and
// idempotency bookkeeping.
type Handlers struct {
	db       *gorm.DB
	coach    CoachService
	clients  ClientService
	docs     DocumentService
	prompts  PromptService
	overseer OverseerService
	reports  ReportService
	feedback FeedbackService
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, coach CoachService, clients ClientService, docs DocumentService, prompts PromptService, overseer OverseerService, reports ReportService, feedback FeedbackService) *Handlers {
	return &Handlers{
		db:       db,
		coach:    coach,
		clients:  clients,
		docs:     docs,
		prompts:  prompts,
		overseer: overseer,
		reports:  reports,
		feedback: feedback,
	}
}

// caller builds the authorization subject from the authenticated identity.
func caller(c *gin.Context) authz.Caller {
	return authz.Caller{
		UserID: middleware.UserIDFrom(c),
		Role:   middleware.RoleFrom(c),
	}
}

// authorizeClient verifies the caller may access the client. On rejection it
// writes the JSON error itself and returns false: missing clients map to 404
// and assignment rejections to 403, both with Dutch messages.
func (h *Handlers) authorizeClient(c *gin.Context, clientID string) (authz.Caller, bool) {
	cl := caller(c)
	decision, err := authz.CanAccessClient(c.Request.Context(), h.db, cl, clientID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return cl, false
	}
	if !decision.Granted {
		if decision.Reason == authz.ReasonClientNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
		} else {
			fail(c, http.StatusForbidden, ErrCodeForbidden, services.MsgUnauthorized)
		}
		return cl, false
	}
	return cl, true
}

//
// DTOs
//

// CoachMessageRequest is the JSON payload for both coach POST endpoints.
type CoachMessageRequest struct {
	// Message is the coach's input. It must be non-empty after trimming.
	Message string `json:"message" example:"Hoe kan ik het gesprek over haar doelen aanpakken?"`
	// ConversationID optionally correlates the frontend's view of the
	// conversation; it is logged but not interpreted.
	ConversationID string `json:"conversationId,omitempty"`
}

// CoachAnswerResponse is the JSON envelope for a synchronous coach reply.
type CoachAnswerResponse struct {
	ClientID   string           `json:"clientId"`
	Reply      string           `json:"reply"`
	ResponseID string           `json:"responseId"`
	Usage      ai.Usage         `json:"usage"`
	History    []domain.Message `json:"history"`
}

// CoachHistoryResponse is the JSON envelope for the history window.
type CoachHistoryResponse struct {
	ClientID string           `json:"clientId"`
	History  []domain.Message `json:"history"`
}

// historyWindowSize is the window returned by the GET endpoint and after a
// synchronous reply.
const historyWindowSize = 50

//
// Handlers
//

// StreamCoach godoc
// @ID          streamCoach
// @Summary     Stream a coach reply over SSE
// @Description Persists the message, streams the assistant reply as SSE events
// @Description (meta, delta, done, error) and persists the reply when complete.
// @Tags        Coach
// @Accept      json
// @Produce     text/event-stream
//
// @Param       clientId  path  string  true  "Client ID (UUID)"  format(uuid)
// @Param       body      body  handlers.CoachMessageRequest  true  "Message payload"
//
// @Success     200  {string}  string  "SSE stream"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty message"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Client not assigned to caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Router      /coach/{clientId}/stream [post]
func (h *Handlers) StreamCoach(c *gin.Context) {
	start := time.Now()
	clientID := c.Param("clientId")
	requestID := middleware.RequestIDFrom(c)

	cl, authorized := h.authorizeClient(c, clientID)
	if !authorized {
		return
	}

	var req CoachMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
		return
	}

	flusher, canStream := c.Writer.(http.Flusher)
	if !canStream {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "streaming unsupported")
		return
	}

	// From here on the response is a 200 event stream; failures become
	// terminal error events.
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-store")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable proxy buffering
	c.Status(http.StatusOK)

	emit := func(event string, payload any) {
		writeSSEEvent(c, flusher, event, payload)
	}

	res, err := h.coach.Stream(c.Request.Context(), requestID, cl, clientID, message, emit)

	// The stream is already closed from the client's perspective; what
	// remains is operational logging and metrics with the real outcome.
	lg := middleware.LoggerFrom(c)
	status := http.StatusOK
	outcome := middleware.StreamOutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = 499 // client closed request
		outcome = middleware.StreamOutcomeAborted
	case errors.Is(err, ai.ErrTimeout):
		status = http.StatusGatewayTimeout
		outcome = middleware.StreamOutcomeTimeout
	default:
		status = http.StatusInternalServerError
		outcome = middleware.StreamOutcomeError
	}
	middleware.ObserveCoachStream(outcome)

	ev := lg.Info()
	if err != nil {
		ev = lg.Error().Err(err)
	}
	ev.
		Str("client_id", clientID).
		Str("conversation_id", req.ConversationID).
		Int("message_length", len(message)).
		Int("stream_status", status).
		Dur("duration", time.Since(start))
	if res != nil {
		ev.
			Str("response_id", res.ResponseID).
			Int("reply_length", len(res.Reply)).
			Int("doc_context_chars", res.ContextChars).
			Int("doc_context_sources", len(res.Sources))
	}
	ev.Msg("coach stream finished")
}

// AnswerCoach godoc
// @ID          answerCoach
// @Summary     Send a message and get a synchronous coach reply
// @Description Same pipeline as the SSE route without streaming. Supports
// @Description idempotent retries via the Idempotency-Key header.
// @Tags        Coach
// @Accept      json
// @Produce     json
//
// @Param       clientId         path    string  true   "Client ID (UUID)"  format(uuid)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CoachMessageRequest  true  "Message payload"
//
// @Success     200  {object}  handlers.CoachAnswerResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty message"
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Coach unavailable"
// @Router      /coach/{clientId} [post]
func (h *Handlers) AnswerCoach(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := c.Param("clientId")

	cl, authorized := h.authorizeClient(c, clientID)
	if !authorized {
		return
	}

	var req CoachMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
		return
	}

	// Idempotency (replay path) – return the previously persisted reply.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, h.db, cl.UserID, clientID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetMessage(ctx, h.db, rec.MessageID); err2 == nil {
				history, _ := h.coach.History(ctx, cl, clientID, historyWindowSize)
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, CoachAnswerResponse{
					ClientID:   clientID,
					Reply:      prev.Content,
					ResponseID: prev.ResponseID,
					Usage: ai.Usage{
						PromptTokens:     prev.PromptTokens,
						CompletionTokens: prev.CompletionTokens,
						TotalTokens:      prev.TotalTokens,
					},
					History: history,
				})
				return
			}
		}
	}

	reply, completion, history, err := h.coach.Answer(ctx, cl, clientID, message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
		case errors.Is(err, services.ErrClientNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
		case errors.Is(err, ai.ErrTimeout):
			fail(c, http.StatusGatewayTimeout, ErrCodeUpstreamTimeout, services.MsgCoachTimeout)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, services.MsgCoachUnavailable)
		}
		return
	}

	// Idempotency (store path) – best effort, keyed to the persisted reply.
	if idemKey != "" && len(history) > 0 {
		last := history[len(history)-1]
		if last.Role == ai.RoleAssistant {
			_, _ = repo.CreateIdempotency(ctx, h.db, cl.UserID, clientID, idemKey, last.ID, http.StatusOK, 24*time.Hour)
		}
	}

	resp := CoachAnswerResponse{ClientID: clientID, Reply: reply, History: history}
	if completion != nil {
		resp.ResponseID = completion.ResponseID
		resp.Usage = completion.Usage
	}
	ok(c, http.StatusOK, resp)
}

// GetCoachHistory godoc
// @ID          getCoachHistory
// @Summary     Get the recent conversation window for a client
// @Tags        Coach
// @Produce     json
//
// @Param       clientId  path  string  true  "Client ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.CoachHistoryResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Router      /coach/{clientId} [get]
func (h *Handlers) GetCoachHistory(c *gin.Context) {
	clientID := c.Param("clientId")

	cl, authorized := h.authorizeClient(c, clientID)
	if !authorized {
		return
	}

	history, err := h.coach.History(c.Request.Context(), cl, clientID, historyWindowSize)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, services.MsgCoachUnavailable)
		return
	}
	if history == nil {
		history = []domain.Message{}
	}
	ok(c, http.StatusOK, CoachHistoryResponse{ClientID: clientID, History: history})
}

// writeSSEEvent writes one event in SSE framing. The JSON payload is split on
// newlines into multiple data: lines so framing survives any payload.
func writeSSEEvent(c *gin.Context, flusher http.Flusher, event string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		// Keep framing intact even when marshaling fails.
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\":\"internal\"}\n\n")
		flusher.Flush()
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\n", event)
	for _, line := range strings.Split(string(b), "\n") {
		fmt.Fprintf(c.Writer, "data: %s\n", line)
	}
	fmt.Fprint(c.Writer, "\n")
	flusher.Flush()
}
