// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Client
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a client is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ClientUpdate carries the mutable profile fields for UpdateClientProfile.
// Nil pointers leave the corresponding column untouched. CoachID is applied
// only when SetCoach is true, so the coach reference can be cleared with an
// explicit nil.
type ClientUpdate struct {
	Name      *string
	FocusArea *string
	Summary   *string
	Goals     []string
	AvatarURL *string
	CoachID   *string
	SetCoach  bool
}

// CreateClient inserts a new client profile. The client ID is a randomly
// generated UUID and CreatedAt is set to UTC.
func CreateClient(ctx context.Context, db *gorm.DB, name, focusArea, summary string, goals []string, avatarURL string) (*domain.Client, error) {
	c := &domain.Client{
		ID:        uuid.NewString(),
		Name:      name,
		FocusArea: focusArea,
		Summary:   summary,
		AvatarURL: avatarURL,
		CreatedAt: time.Now().UTC(),
	}
	c.SetGoals(goals)
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListClients returns all client profiles ordered by name. The reserved
// system row backing the overseer thread is never listed.
func ListClients(ctx context.Context, db *gorm.DB) ([]domain.Client, error) {
	var out []domain.Client
	err := db.WithContext(ctx).
		Where("id <> ?", domain.OverseerClientID).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

// GetClient fetches a single client by ID, or ErrNotFound if missing.
func GetClient(ctx context.Context, db *gorm.DB, id string) (*domain.Client, error) {
	var c domain.Client
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClientProfile applies the non-nil fields of upd to the client row
// and returns the refreshed record. Returns ErrNotFound when the client
// does not exist.
func UpdateClientProfile(ctx context.Context, db *gorm.DB, id string, upd ClientUpdate) (*domain.Client, error) {
	cols := map[string]any{}
	if upd.Name != nil {
		cols["name"] = *upd.Name
	}
	if upd.FocusArea != nil {
		cols["focus_area"] = *upd.FocusArea
	}
	if upd.Summary != nil {
		cols["summary"] = *upd.Summary
	}
	if upd.Goals != nil {
		tmp := domain.Client{}
		tmp.SetGoals(upd.Goals)
		cols["goals"] = tmp.Goals
	}
	if upd.AvatarURL != nil {
		cols["avatar_url"] = *upd.AvatarURL
	}
	if upd.SetCoach {
		cols["coach_id"] = upd.CoachID
	}

	if len(cols) > 0 {
		res := db.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return GetClient(ctx, db, id)
}
