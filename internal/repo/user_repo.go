// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users and
// their authentication sessions. Authentication protocol internals live
// outside this service; these helpers only resolve tokens to identities.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// GetUserBySessionToken resolves a session cookie token to its user.
// Expired or unknown tokens yield (nil, nil); DB failures are propagated.
func GetUserBySessionToken(ctx context.Context, db *gorm.DB, token string, now time.Time) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	var s domain.AuthSession
	err := db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", s.UserID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// IsCoachUser reports whether id refers to an existing user with the COACH role.
func IsCoachUser(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND role = ?", id, domain.RoleCoach).
		Count(&count).Error
	return count > 0, err
}
