// Package services – OverseerService
//
// The overseer is a single global thread for administrators: practice-wide
// questions instead of per-client coaching. It reuses the session/message
// store through a reserved system client row, so feedback and refinement
// work on overseer replies exactly as on coach replies.

package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// OverseerService answers admin questions over the global thread.
type OverseerService struct {
	DB *gorm.DB
	AI ai.CompletionClient

	// Model is the completion model used for overseer replies.
	Model string

	// Window bounds how many stored turns are replayed per request.
	Window int
}

// Thread returns the recent overseer conversation, oldest first.
func (s *OverseerService) Thread(ctx context.Context) ([]domain.Message, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return repo.GetRecentWindow(ctx, s.DB, sess.ID, s.Window)
}

// Ask persists the admin's message, completes a reply over the overseer
// prompt plus the thread window, persists the reply, and returns it with
// the refreshed thread.
func (s *OverseerService) Ask(ctx context.Context, message string) (string, *ai.Completion, []domain.Message, error) {
	tr := otel.Tracer("services/OverseerService")
	ctx, span := tr.Start(ctx, "Ask",
		trace.WithAttributes(attribute.String("agent.kind", domain.AgentKindOverseer)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil, nil, ErrEmptyMessage
	}

	sess, err := s.session(ctx)
	if err != nil {
		return "", nil, nil, err
	}
	if _, err := repo.AppendMessage(ctx, s.DB, sess.ID, ai.RoleUser, domain.SourceHuman, message, nil); err != nil {
		return "", nil, nil, err
	}

	history, err := repo.GetRecentWindow(ctx, s.DB, sess.ID, s.Window)
	if err != nil {
		return "", nil, nil, err
	}
	stored, err := repo.GetPrompt(ctx, s.DB, domain.AgentKindOverseer)
	if err != nil {
		return "", nil, nil, err
	}
	base := DefaultOverseerPrompt
	if stored != nil {
		base = stored.Content
	}

	msgs := append([]ai.Message{{Role: ai.RoleSystem, Content: base}}, transcriptMessages(history)...)
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

	thread, err := repo.GetRecentWindow(ctx, s.DB, sess.ID, s.Window)
	if err != nil {
		return "", nil, nil, err
	}
	return trimmed, completion, thread, nil
}

// session resolves the single global overseer session, creating it on
// first use. Both key columns use the reserved system identifier.
func (s *OverseerService) session(ctx context.Context) (*domain.CoachingSession, error) {
	return repo.GetOrCreateSession(ctx, s.DB, domain.OverseerClientID, domain.OverseerClientID)
}
