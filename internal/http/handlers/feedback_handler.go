// Feedback HTTP handlers.
//
// This file exposes the endpoint for rating generated messages:
//   - POST /messages/{id}/feedback
//
// Feedback is free text keyed by agent kind and feeds prompt refinement.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/services"
)

// FeedbackRequest is the JSON payload for rating a generated message.
type FeedbackRequest struct {
	AgentType string `json:"agentType" example:"COACH"`
	Feedback  string `json:"feedback" example:"Het antwoord was te algemeen; vraag eerst door."`
}

// FeedbackResponse wraps the stored feedback entry.
type FeedbackResponse struct {
	Feedback *domain.AgentFeedback `json:"feedback"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Record feedback on a generated message
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Message ID (UUID)"  format(uuid)
// @Param       body  body  handlers.FeedbackRequest  true  "Feedback payload"
// @Success     201  {object}  handlers.FeedbackResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty feedback or unknown agent kind"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Router      /messages/{id}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	messageID := c.Param("id")

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Ongeldig verzoek")
		return
	}

	fb, err := h.feedback.Submit(c.Request.Context(), messageID, req.AgentType, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAgentKind):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Agenttype ontbreekt.")
		case errors.Is(err, services.ErrEmptyFeedback):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Feedback mag niet leeg zijn.")
		case errors.Is(err, services.ErrMessageNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Bericht niet gevonden.")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "internal server error")
		}
		return
	}
	ok(c, http.StatusCreated, FeedbackResponse{Feedback: fb})
}
