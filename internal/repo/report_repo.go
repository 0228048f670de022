// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Report
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// CreateReport inserts a generated report for a client.
func CreateReport(ctx context.Context, db *gorm.DB, clientID, content, responseID string) (*domain.Report, error) {
	r := &domain.Report{
		ID:         uuid.NewString(),
		ClientID:   clientID,
		Content:    content,
		ResponseID: responseID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListReports returns the most recent reports for a client, newest first.
func ListReports(ctx context.Context, db *gorm.DB, clientID string, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []domain.Report
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
