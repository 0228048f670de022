// Package services – ClientService
//
// Client profile management: listing, creation, and partial updates
// including coach assignment. Role checks live in the HTTP layer; this
// service enforces data-level rules only (required name, coach reference
// must point at an existing COACH user).

package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// ClientService manages client profiles.
type ClientService struct {
	DB *gorm.DB
}

// List returns every client profile, ordered by name.
func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	return repo.ListClients(ctx, s.DB)
}

// Get fetches one client profile.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	c, err := repo.GetClient(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrClientNotFound
	}
	return c, err
}

// Create inserts a new client. Name is required; goals are filtered to
// non-empty entries.
func (s *ClientService) Create(ctx context.Context, name, focusArea, summary string, goals []string, avatarURL string) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	filtered := make([]string, 0, len(goals))
	for _, g := range goals {
		if strings.TrimSpace(g) != "" {
			filtered = append(filtered, g)
		}
	}
	return repo.CreateClient(ctx, s.DB, name, focusArea, summary, filtered, avatarURL)
}

// Update applies a partial profile update. When the update assigns a coach,
// the referenced user must exist and hold the COACH role; clearing the
// assignment (SetCoach with nil CoachID) is always allowed.
func (s *ClientService) Update(ctx context.Context, id string, upd repo.ClientUpdate) (*domain.Client, error) {
	if upd.SetCoach && upd.CoachID != nil {
		ok, err := repo.IsCoachUser(ctx, s.DB, *upd.CoachID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCoachNotFound
		}
	}
	c, err := repo.UpdateClientProfile(ctx, s.DB, id, upd)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrClientNotFound
	}
	return c, err
}
