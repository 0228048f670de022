// Overseer HTTP handlers.
//
// The overseer is the admin-only practice-wide thread:
//   - GET  /overseer  (global thread)
//   - POST /overseer  (ask, returns reply + refreshed thread)
//
// Role enforcement is done by the RequireAdmin middleware in the router.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/services"
)

// OverseerThreadResponse wraps the global thread.
type OverseerThreadResponse struct {
	Thread []domain.Message `json:"thread"`
}

// OverseerAskRequest is the JSON payload for an overseer question.
type OverseerAskRequest struct {
	Message string `json:"message" example:"Welke cliënten hebben deze maand weinig voortgang geboekt?"`
}

// OverseerAskResponse is the reply envelope.
type OverseerAskResponse struct {
	Reply      string           `json:"reply"`
	ResponseID string           `json:"responseId"`
	Usage      ai.Usage         `json:"usage"`
	Thread     []domain.Message `json:"thread"`
}

// GetOverseerThread godoc
// @ID          getOverseerThread
// @Summary     Get the global overseer thread
// @Tags        Overseer
// @Produce     json
// @Success     200  {object}  handlers.OverseerThreadResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Router      /overseer [get]
func (h *Handlers) GetOverseerThread(c *gin.Context) {
	thread, err := h.overseer.Thread(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}
	if thread == nil {
		thread = []domain.Message{}
	}
	ok(c, http.StatusOK, OverseerThreadResponse{Thread: thread})
}

// AskOverseer godoc
// @ID          askOverseer
// @Summary     Ask the overseer a practice-wide question
// @Tags        Overseer
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.OverseerAskRequest  true  "Question payload"
// @Success     200  {object}  handlers.OverseerAskResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty message"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Router      /overseer [post]
func (h *Handlers) AskOverseer(c *gin.Context) {
	var req OverseerAskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
		return
	}

	reply, completion, thread, err := h.overseer.Ask(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.MsgMessageRequired)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, "Overzichtscoach is tijdelijk niet bereikbaar.")
		return
	}

	resp := OverseerAskResponse{Reply: reply, Thread: thread}
	if completion != nil {
		resp.ResponseID = completion.ResponseID
		resp.Usage = completion.Usage
	}
	ok(c, http.StatusOK, resp)
}
