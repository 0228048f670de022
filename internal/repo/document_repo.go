// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Document
// model. Documents are created once on upload and never mutated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

// NewDocument carries the attributes of a freshly uploaded file.
type NewDocument struct {
	ClientID      string
	OriginalName  string
	StoredName    string
	MimeType      string
	Size          int64
	Content       *string
	Kind          string
	AudioDuration *float64
}

// CreateDocument inserts a document row for an uploaded file.
func CreateDocument(ctx context.Context, db *gorm.DB, nd NewDocument) (*domain.Document, error) {
	d := &domain.Document{
		ID:            uuid.NewString(),
		ClientID:      nd.ClientID,
		OriginalName:  nd.OriginalName,
		StoredName:    nd.StoredName,
		MimeType:      nd.MimeType,
		Size:          nd.Size,
		Content:       nd.Content,
		Kind:          nd.Kind,
		AudioDuration: nd.AudioDuration,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// ListDocuments returns all documents of a client, newest first.
func ListDocuments(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListDocumentsWithContent returns the documents of a client that carry
// extracted text, newest first. Used by the document-context retriever.
func ListDocumentsWithContent(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Where("client_id = ? AND content IS NOT NULL AND content != ''", clientID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
