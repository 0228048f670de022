// Package services – FeedbackService
//
// Free-text critique on generated messages, keyed by agent kind. Entries
// are append-only and feed prompt refinement.

package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// FeedbackService records agent feedback.
type FeedbackService struct {
	DB *gorm.DB
}

// Submit appends one feedback entry for a generated message. The message
// must exist and be an assistant turn; humans are not rated.
func (s *FeedbackService) Submit(ctx context.Context, messageID, agentKind, feedback string) (*domain.AgentFeedback, error) {
	agentKind, err := NormalizeAgentKind(agentKind)
	if err != nil {
		return nil, err
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, ErrEmptyFeedback
	}

	msg, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if msg.Role != ai.RoleAssistant {
		return nil, ErrMessageNotFound
	}

	return repo.CreateAgentFeedback(ctx, s.DB, agentKind, messageID, feedback)
}
