package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mwierda/coachhub-backend/internal/domain"
)

func newDocumentDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:docrepo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Client{}, &domain.Document{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedDocClient(t *testing.T, db *gorm.DB) string {
	t.Helper()
	c := &domain.Client{ID: uuid.NewString(), Name: "Anna", Goals: "[]"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c.ID
}

func TestCreateDocument_PersistsAllFields(t *testing.T) {
	db := newDocumentDB(t)
	clientID := seedDocClient(t, db)

	text := "sessienotitie"
	dur := 12.5
	d, err := CreateDocument(context.Background(), db, NewDocument{
		ClientID:      clientID,
		OriginalName:  "notitie.txt",
		StoredName:    "1700000000-notitie.txt",
		MimeType:      "text/plain",
		Size:          13,
		Content:       &text,
		Kind:          domain.DocumentKindAudio,
		AudioDuration: &dur,
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected generated id")
	}

	var got domain.Document
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.ClientID != clientID || got.OriginalName != "notitie.txt" || got.StoredName != "1700000000-notitie.txt" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.MimeType != "text/plain" || got.Size != 13 || got.Kind != domain.DocumentKindAudio {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.HasContent() || *got.Content != "sessienotitie" {
		t.Fatalf("content not stored: %+v", got)
	}
	if got.AudioDuration == nil || *got.AudioDuration != 12.5 {
		t.Fatalf("audio duration not stored: %+v", got)
	}
}

func TestListDocuments_NewestFirst_ScopedToClient(t *testing.T) {
	db := newDocumentDB(t)
	clientID := seedDocClient(t, db)
	otherID := seedDocClient(t, db)

	d1, err := CreateDocument(context.Background(), db, NewDocument{ClientID: clientID, OriginalName: "oud.txt", StoredName: "1-oud.txt", MimeType: "text/plain", Kind: domain.DocumentKindText})
	if err != nil {
		t.Fatalf("create d1: %v", err)
	}
	d2, err := CreateDocument(context.Background(), db, NewDocument{ClientID: clientID, OriginalName: "nieuw.txt", StoredName: "2-nieuw.txt", MimeType: "text/plain", Kind: domain.DocumentKindText})
	if err != nil {
		t.Fatalf("create d2: %v", err)
	}
	if _, err := CreateDocument(context.Background(), db, NewDocument{ClientID: otherID, OriginalName: "ander.txt", StoredName: "3-ander.txt", MimeType: "text/plain", Kind: domain.DocumentKindText}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	// Deterministic ordering regardless of insert-time resolution.
	now := time.Now().UTC()
	db.Model(&domain.Document{}).Where("id = ?", d1.ID).Update("created_at", now.Add(-time.Minute))
	db.Model(&domain.Document{}).Where("id = ?", d2.ID).Update("created_at", now)

	got, err := ListDocuments(context.Background(), db, clientID)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].OriginalName != "nieuw.txt" || got[1].OriginalName != "oud.txt" {
		t.Fatalf("not newest first: %s, %s", got[0].OriginalName, got[1].OriginalName)
	}
}

func TestListDocumentsWithContent_SkipsEmptyAndNil(t *testing.T) {
	db := newDocumentDB(t)
	clientID := seedDocClient(t, db)

	text := "transcript"
	empty := ""
	if _, err := CreateDocument(context.Background(), db, NewDocument{ClientID: clientID, OriginalName: "vol.txt", StoredName: "1-vol.txt", MimeType: "text/plain", Content: &text, Kind: domain.DocumentKindText}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := CreateDocument(context.Background(), db, NewDocument{ClientID: clientID, OriginalName: "leeg.txt", StoredName: "2-leeg.txt", MimeType: "text/plain", Content: &empty, Kind: domain.DocumentKindText}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := CreateDocument(context.Background(), db, NewDocument{ClientID: clientID, OriginalName: "geen.m4a", StoredName: "3-geen.m4a", MimeType: "audio/mp4", Kind: domain.DocumentKindAudio}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := ListDocumentsWithContent(context.Background(), db, clientID)
	if err != nil {
		t.Fatalf("ListDocumentsWithContent: %v", err)
	}
	if len(got) != 1 || got[0].OriginalName != "vol.txt" {
		t.Fatalf("expected only the document with text, got %+v", got)
	}
}
