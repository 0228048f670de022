// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AgentFeedback model (append-only critique on generated messages).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// CreateAgentFeedback appends a feedback row for a message.
func CreateAgentFeedback(ctx context.Context, db *gorm.DB, agentKind, messageID, feedback string) (*domain.AgentFeedback, error) {
	fb := &domain.AgentFeedback{
		ID:        uuid.NewString(),
		AgentKind: agentKind,
		MessageID: messageID,
		Feedback:  feedback,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

// ListAgentFeedback returns the most recent feedback rows for an agent kind,
// newest first, capped at limit.
func ListAgentFeedback(ctx context.Context, db *gorm.DB, agentKind string, limit int) ([]domain.AgentFeedback, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.AgentFeedback
	err := db.WithContext(ctx).
		Where("agent_kind = ?", agentKind).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
