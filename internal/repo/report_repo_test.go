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

func newReportDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:reportrepo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Client{}, &domain.Report{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedReportClient(t *testing.T, db *gorm.DB) string {
	t.Helper()
	c := &domain.Client{ID: uuid.NewString(), Name: "Anna", Goals: "[]"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c.ID
}

func TestCreateReport_Persists(t *testing.T) {
	db := newReportDB(t)
	clientID := seedReportClient(t, db)

	r, err := CreateReport(context.Background(), db, clientID, "Voortgang is goed.", "resp-1")
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if r.ID == "" {
		t.Fatalf("expected generated id")
	}

	var got domain.Report
	if err := db.First(&got, "id = ?", r.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.ClientID != clientID || got.Content != "Voortgang is goed." || got.ResponseID != "resp-1" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestListReports_NewestFirst_CappedAndScoped(t *testing.T) {
	db := newReportDB(t)
	clientID := seedReportClient(t, db)
	otherID := seedReportClient(t, db)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		r, err := CreateReport(context.Background(), db, clientID, fmt.Sprintf("rapport %d", i), "")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		db.Model(&domain.Report{}).Where("id = ?", r.ID).Update("created_at", now.Add(time.Duration(i)*time.Minute))
	}
	if _, err := CreateReport(context.Background(), db, otherID, "ander dossier", ""); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := ListReports(context.Background(), db, clientID, 2)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reports, want 2 (capped)", len(got))
	}
	if got[0].Content != "rapport 2" || got[1].Content != "rapport 1" {
		t.Fatalf("not newest first: %s, %s", got[0].Content, got[1].Content)
	}
	for _, r := range got {
		if r.ClientID != clientID {
			t.Fatalf("foreign client leaked: %+v", r)
		}
	}
}

func TestListReports_DefaultLimit(t *testing.T) {
	db := newReportDB(t)
	clientID := seedReportClient(t, db)

	for i := 0; i < 7; i++ {
		if _, err := CreateReport(context.Background(), db, clientID, fmt.Sprintf("r%d", i), ""); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	got, err := ListReports(context.Background(), db, clientID, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d reports, want default cap of 5", len(got))
	}
}
