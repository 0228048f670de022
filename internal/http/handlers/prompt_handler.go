// Prompt HTTP handlers.
//
// This file exposes the role-prompt management endpoints:
//   - GET  /prompts/{kind}    (effective prompt: override or default)
//   - POST /prompts/{kind}    (overwrite, ADMIN)
//   - POST /prompts/refine    (rewrite from feedback, ADMIN)
//
// The {kind} segment accepts coach, overseer, and report (case-insensitive).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/services"
)

//
// DTOs
//

// PromptResponse is the JSON envelope for a resolved prompt.
type PromptResponse struct {
	Prompt    string     `json:"prompt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	IsCustom  bool       `json:"isCustom"`
}

// UpdatePromptRequest is the JSON payload for overwriting a prompt.
type UpdatePromptRequest struct {
	Prompt string `json:"prompt"`
}

// RefinePromptRequest selects the agent whose prompt is rewritten.
type RefinePromptRequest struct {
	AgentType string `json:"agentType" example:"COACH"`
}

// RefinePromptResponse reports a refinement round.
type RefinePromptResponse struct {
	AgentType    string                 `json:"agentType"`
	Prompt       string                 `json:"prompt"`
	UpdatedAt    *time.Time             `json:"updatedAt"`
	UsedFeedback []domain.AgentFeedback `json:"usedFeedback"`
}

//
// Handlers
//

// GetPrompt godoc
// @ID          getPrompt
// @Summary     Get the effective role prompt for an agent kind
// @Tags        Prompts
// @Produce     json
// @Success     200  {object}  handlers.PromptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown agent kind"
// @Router      /prompts/{kind} [get]
//
// The kind is fixed per registered route (coach, overseer, report), so the
// handler is a closure rather than a path-parameter reader.
func (h *Handlers) GetPrompt(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := h.prompts.Get(c.Request.Context(), kind)
		if err != nil {
			if errors.Is(err, services.ErrInvalidAgentKind) {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Agenttype ontbreekt.")
				return
			}
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			return
		}
		ok(c, http.StatusOK, PromptResponse{Prompt: view.Prompt, UpdatedAt: view.UpdatedAt, IsCustom: view.IsCustom})
	}
}

// UpdatePrompt godoc
// @ID          updatePrompt
// @Summary     Overwrite the role prompt for an agent kind
// @Tags        Prompts
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UpdatePromptRequest  true  "New prompt"
// @Success     200  {object}  handlers.PromptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty prompt or unknown kind"
// @Router      /prompts/{kind} [post]
func (h *Handlers) UpdatePrompt(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePromptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Ongeldig verzoek")
			return
		}

		view, err := h.prompts.Update(c.Request.Context(), kind, req.Prompt)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidAgentKind):
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Agenttype ontbreekt.")
			case errors.Is(err, services.ErrEmptyPrompt):
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Prompt mag niet leeg zijn.")
			default:
				fail(c, http.StatusInternalServerError, ErrCodeInternal, "Prompt opslaan is mislukt.")
			}
			return
		}
		ok(c, http.StatusOK, PromptResponse{Prompt: view.Prompt, UpdatedAt: view.UpdatedAt, IsCustom: view.IsCustom})
	}
}

// RefinePrompt godoc
// @ID          refinePrompt
// @Summary     Rewrite an agent's prompt from recorded feedback
// @Description Loads the latest feedback for the agent kind, asks the
// @Description completion backend to rewrite the current base prompt, and
// @Description stores the result. Fails with 400 when no feedback exists.
// @Tags        Prompts
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RefinePromptRequest  true  "Agent selection"
// @Success     200  {object}  handlers.RefinePromptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown kind or no feedback"
// @Failure     500  {object}  handlers.ErrorResponse  "Rewrite failed"
// @Router      /prompts/refine [post]
func (h *Handlers) RefinePrompt(c *gin.Context) {
	var req RefinePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Agenttype ontbreekt.")
		return
	}

	res, err := h.prompts.Refine(c.Request.Context(), req.AgentType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAgentKind):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Agenttype ontbreekt.")
		case errors.Is(err, services.ErrNoFeedback):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Er is nog geen feedback beschikbaar voor dit agenttype.")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRefineFailed, "Prompt herschrijven is mislukt.")
		}
		return
	}
	ok(c, http.StatusOK, RefinePromptResponse{
		AgentType:    res.View.Kind,
		Prompt:       res.View.Prompt,
		UpdatedAt:    res.View.UpdatedAt,
		UsedFeedback: res.UsedFeedback,
	})
}
