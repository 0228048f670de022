// Package services – DocumentService
//
// Document intake: store the uploaded bytes, classify TEXT versus AUDIO,
// and extract content best-effort. Extraction failure is recorded, never
// fatal: the upload succeeds with an empty content column and the file
// simply does not participate in context retrieval.

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
	"github.com/mwierda/coachhub-backend/internal/storage"
)

// maxTextContentChars caps how much raw text is stored per document.
const maxTextContentChars = 8000

var (
	audioExtRe = regexp.MustCompile(`(?i)\.(mp3|wav|m4a|aac|ogg|flac)$`)
	textExtRe  = regexp.MustCompile(`(?i)\.(md|txt|json|csv)$`)
)

// ExtractionOutcome records what happened to content extraction for an
// upload. Exactly one of Succeeded/Skipped/Failed applies.
type ExtractionOutcome struct {
	Succeeded bool
	Skipped   bool
	Failed    bool
	Reason    string
}

// UploadResult is the stored document plus its extraction outcome.
type UploadResult struct {
	Document   *domain.Document
	Extraction ExtractionOutcome
}

// DocumentService stores uploads and extracts their text.
type DocumentService struct {
	DB          *gorm.DB
	Store       storage.Store
	Transcriber ai.Transcriber
}

// List returns a client's documents, newest first. The client must exist.
func (s *DocumentService) List(ctx context.Context, clientID string) ([]domain.Document, error) {
	if _, err := repo.GetClient(ctx, s.DB, clientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return repo.ListDocuments(ctx, s.DB, clientID)
}

// Upload persists the file bytes, classifies the document, extracts
// content best-effort, and records the document row.
func (s *DocumentService) Upload(ctx context.Context, clientID, originalName, mimeType string, data []byte) (*UploadResult, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "Upload",
		trace.WithAttributes(
			attribute.String("client.id", clientID),
			attribute.Int("file.size", len(data)),
		),
	)
	defer span.End()

	if _, err := repo.GetClient(ctx, s.DB, clientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	obj, err := s.Store.Save(ctx, clientID, originalName, data)
	if err != nil {
		return nil, err
	}

	kind := domain.DocumentKindText
	if isAudioFile(originalName, mimeType) {
		kind = domain.DocumentKindAudio
	}

	var (
		content       *string
		audioDuration *float64
		outcome       = ExtractionOutcome{Skipped: true}
	)
	switch {
	case kind == domain.DocumentKindAudio:
		t, terr := s.Transcriber.Transcribe(ctx, obj.Path, mimeType)
		if terr != nil {
			outcome = ExtractionOutcome{Failed: true, Reason: terr.Error()}
			break
		}
		if text := strings.TrimSpace(t.Text); text != "" {
			content = &text
			outcome = ExtractionOutcome{Succeeded: true}
		} else {
			outcome = ExtractionOutcome{Failed: true, Reason: "empty transcription"}
		}
		if t.Duration > 0 {
			d := t.Duration
			audioDuration = &d
		}
	case shouldStoreContent(mimeType, originalName):
		text := string(data)
		if len(text) > maxTextContentChars {
			text = text[:maxTextContentChars]
		}
		content = &text
		outcome = ExtractionOutcome{Succeeded: true}
	}

	doc, err := repo.CreateDocument(ctx, s.DB, repo.NewDocument{
		ClientID:      clientID,
		OriginalName:  originalName,
		StoredName:    obj.StoredName,
		MimeType:      mimeType,
		Size:          int64(len(data)),
		Content:       content,
		Kind:          kind,
		AudioDuration: audioDuration,
	})
	if err != nil {
		return nil, err
	}
	return &UploadResult{Document: doc, Extraction: outcome}, nil
}

// shouldStoreContent reports whether raw bytes are worth keeping as text.
func shouldStoreContent(mimeType, fileName string) bool {
	if strings.HasPrefix(mimeType, "text/") || mimeType == "application/json" {
		return true
	}
	return textExtRe.MatchString(fileName)
}

// isAudioFile classifies an upload as audio by MIME type or extension.
func isAudioFile(fileName, mimeType string) bool {
	if strings.HasPrefix(mimeType, "audio/") {
		return true
	}
	return audioExtRe.MatchString(fileName)
}
