// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for coaching
// sessions and their messages.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// MessageMeta carries optional completion metadata for AI-sourced turns.
type MessageMeta struct {
	ResponseID       string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GetOrCreateSession returns the session for (userID, clientID), creating it
// on first use. Creation is an atomic insert-or-fetch: the insert relies on
// the unique (user_id, client_id) index, and a unique violation falls back to
// fetching the row the concurrent winner created. Two racing first calls
// therefore observe the same session ID.
func GetOrCreateSession(ctx context.Context, db *gorm.DB, userID, clientID string) (*domain.CoachingSession, error) {
	var s domain.CoachingSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND client_id = ?", userID, clientID).
		First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s = domain.CoachingSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		ClientID:  clientID,
		CreatedAt: time.Now().UTC(),
	}
	if cerr := db.WithContext(ctx).Create(&s).Error; cerr != nil {
		if isUniqueViolation(cerr) {
			var existing domain.CoachingSession
			if ferr := db.WithContext(ctx).
				Where("user_id = ? AND client_id = ?", userID, clientID).
				First(&existing).Error; ferr != nil {
				return nil, ferr
			}
			return &existing, nil
		}
		return nil, cerr
	}
	return &s, nil
}

// AppendMessage inserts a message row. Meta may be nil for human turns.
func AppendMessage(ctx context.Context, db *gorm.DB, sessionID, role, source, content string, meta *MessageMeta) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Source:    source,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if meta != nil {
		m.ResponseID = meta.ResponseID
		m.PromptTokens = meta.PromptTokens
		m.CompletionTokens = meta.CompletionTokens
		m.TotalTokens = meta.TotalTokens
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetRecentWindow returns the last limit messages of a session in
// chronological order. It queries descending with a limit and reverses
// in memory so the window always ends at the newest message.
func GetRecentWindow(ctx context.Context, db *gorm.DB, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 30
	}
	var desc []domain.Message
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&desc).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, len(desc))
	for i := range desc {
		out[len(desc)-1-i] = desc[i]
	}
	return out, nil
}

// GetClientRecentMessages returns the last limit messages across every
// session of a client, chronological. Used by report generation, which
// looks at the whole conversation history rather than one coach's thread.
func GetClientRecentMessages(ctx context.Context, db *gorm.DB, clientID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 30
	}
	var desc []domain.Message
	err := db.WithContext(ctx).
		Joins("JOIN coaching_sessions ON coaching_sessions.id = messages.session_id").
		Where("coaching_sessions.client_id = ?", clientID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Find(&desc).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, len(desc))
	for i := range desc {
		out[len(desc)-1-i] = desc[i]
	}
	return out, nil
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique")
}
