// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Prompt
// model: one row per agent kind, overwritten in place.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// GetPrompt returns the stored prompt for kind, or (nil, nil) when no
// override has been saved yet. Callers fall back to the compiled-in default.
func GetPrompt(ctx context.Context, db *gorm.DB, kind string) (*domain.Prompt, error) {
	var p domain.Prompt
	err := db.WithContext(ctx).Where("kind = ?", kind).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPrompt overwrites the prompt for kind in place, creating the row on
// first save. No history is kept beyond the updated timestamp.
func UpsertPrompt(ctx context.Context, db *gorm.DB, kind, content string) (*domain.Prompt, error) {
	p := &domain.Prompt{
		Kind:      kind,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}
	res := db.WithContext(ctx).
		Model(&domain.Prompt{}).
		Where("kind = ?", kind).
		Updates(map[string]any{"content": p.Content, "updated_at": p.UpdatedAt})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := db.WithContext(ctx).Create(p).Error; err != nil {
			return nil, err
		}
	}
	return p, nil
}
