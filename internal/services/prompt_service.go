// Package services – PromptService
//
// Role prompts are single-row-per-kind overrides on top of compiled-in
// defaults. Reading always succeeds (default when no override); writing
// overwrites in place; refinement rewrites the current base prompt from the
// most recent agent feedback through the completion backend and saves the
// result.

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// refineFeedbackLimit bounds how many recent feedback entries inform one
// refinement round.
const refineFeedbackLimit = 10

// PromptView is the resolved prompt for one agent kind.
type PromptView struct {
	Kind      string     `json:"kind"`
	Prompt    string     `json:"prompt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	IsCustom  bool       `json:"isCustom"`
}

// PromptService reads, overwrites, and refines agent role prompts.
type PromptService struct {
	DB *gorm.DB
	AI ai.CompletionClient

	// Model used for refinement rewrites.
	Model string
}

// NormalizeAgentKind maps free-form input onto a known agent kind.
func NormalizeAgentKind(input string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case domain.AgentKindCoach:
		return domain.AgentKindCoach, nil
	case domain.AgentKindOverseer:
		return domain.AgentKindOverseer, nil
	case domain.AgentKindReport:
		return domain.AgentKindReport, nil
	}
	return "", ErrInvalidAgentKind
}

// Get resolves the effective prompt for kind: the stored override when one
// exists, the compiled-in default otherwise.
func (s *PromptService) Get(ctx context.Context, kind string) (*PromptView, error) {
	kind, err := NormalizeAgentKind(kind)
	if err != nil {
		return nil, err
	}
	stored, err := repo.GetPrompt(ctx, s.DB, kind)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &PromptView{Kind: kind, Prompt: defaultPromptFor(kind)}, nil
	}
	return &PromptView{Kind: kind, Prompt: stored.Content, UpdatedAt: &stored.UpdatedAt, IsCustom: true}, nil
}

// Update overwrites the stored prompt for kind.
func (s *PromptService) Update(ctx context.Context, kind, content string) (*PromptView, error) {
	kind, err := NormalizeAgentKind(kind)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyPrompt
	}
	saved, err := repo.UpsertPrompt(ctx, s.DB, kind, content)
	if err != nil {
		return nil, err
	}
	return &PromptView{Kind: kind, Prompt: saved.Content, UpdatedAt: &saved.UpdatedAt, IsCustom: true}, nil
}

// RefineResult reports a refinement round: the saved prompt plus the
// feedback that informed it.
type RefineResult struct {
	View         *PromptView
	UsedFeedback []domain.AgentFeedback
}

// Refine rewrites the base prompt for kind from the latest recorded
// feedback and stores the result. Kinds without feedback return
// ErrNoFeedback; refinement never runs on an empty signal.
func (s *PromptService) Refine(ctx context.Context, kind string) (*RefineResult, error) {
	tr := otel.Tracer("services/PromptService")
	ctx, span := tr.Start(ctx, "Refine",
		trace.WithAttributes(attribute.String("agent.kind", kind)),
	)
	defer span.End()

	kind, err := NormalizeAgentKind(kind)
	if err != nil {
		return nil, err
	}

	feedback, err := repo.ListAgentFeedback(ctx, s.DB, kind, refineFeedbackLimit)
	if err != nil {
		return nil, err
	}
	if len(feedback) == 0 {
		return nil, ErrNoFeedback
	}

	base, err := s.Get(ctx, kind)
	if err != nil {
		return nil, err
	}

	refined, _, err := s.AI.Complete(ctx, s.Model, refineMessages(kind, base.Prompt, feedback))
	if err != nil {
		return nil, err
	}
	refined = strings.TrimSpace(refined)
	if refined == "" {
		return nil, fmt.Errorf("refinement produced an empty prompt")
	}

	view, err := s.Update(ctx, kind, refined)
	if err != nil {
		return nil, err
	}
	return &RefineResult{View: view, UsedFeedback: feedback}, nil
}

// refineMessages builds the rewrite instruction: the current base prompt
// plus the feedback entries, newest first, as the model's working material.
func refineMessages(kind, basePrompt string, feedback []domain.AgentFeedback) []ai.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Huidige rolinstructie voor agent %s:\n\n%s\n\n", kind, basePrompt)
	b.WriteString("Recente feedback van gebruikers op antwoorden van deze agent:\n")
	for i, f := range feedback {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(f.Feedback))
	}
	b.WriteString("\nHerschrijf de rolinstructie zodat de feedback wordt geadresseerd. Behoud de oorspronkelijke opdracht en taal. Antwoord uitsluitend met de nieuwe rolinstructie, zonder toelichting.")

	return []ai.Message{
		{Role: ai.RoleSystem, Content: "Je verbetert systeeminstructies voor AI-agents op basis van gebruikersfeedback."},
		{Role: ai.RoleUser, Content: b.String()},
	}
}
