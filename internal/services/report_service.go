// Package services – ReportService
//
// Progress reports are one-shot generations: report prompt + client facts +
// recent conversation + document excerpt, completed synchronously and
// persisted as an immutable Report row.

package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/authz"
	"github.com/mwierda/coachhub-backend/internal/docctx"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// reportHistoryWindow bounds how much conversation feeds a report.
const reportHistoryWindow = 50

// ReportService generates and lists client progress reports.
type ReportService struct {
	DB   *gorm.DB
	AI   ai.CompletionClient
	Docs *docctx.Retriever

	// Model is the completion model used for report generation.
	Model string
}

// GeneratedReport is the result of one generation round.
type GeneratedReport struct {
	Report     *domain.Report
	Completion *ai.Completion
}

// List returns the most recent reports for a client, newest first.
func (s *ReportService) List(ctx context.Context, clientID string, limit int) ([]domain.Report, error) {
	return repo.ListReports(ctx, s.DB, clientID, limit)
}

// Generate produces and persists a new progress report for the client. The
// document excerpt is ranked against the client's focus and goals since a
// report has no user query to rank by.
func (s *ReportService) Generate(ctx context.Context, caller authz.Caller, clientID string) (*GeneratedReport, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("client.id", clientID),
			attribute.String("user.id", caller.UserID),
		),
	)
	defer span.End()

	client, err := repo.GetClient(ctx, s.DB, clientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	history, err := repo.GetClientRecentMessages(ctx, s.DB, clientID, reportHistoryWindow)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(client.FocusArea + " " + strings.Join(client.GoalList(), " "))
	excerpt, err := s.Docs.Retrieve(ctx, caller, clientID, query)
	if err != nil {
		return nil, err
	}

	stored, err := repo.GetPrompt(ctx, s.DB, domain.AgentKindReport)
	if err != nil {
		return nil, err
	}
	base := DefaultReportPrompt
	if stored != nil {
		base = stored.Content
	}

	system := buildCoachSystemPrompt(base, client, excerpt.ContextText)
	msgs := append([]ai.Message{{Role: ai.RoleSystem, Content: system}}, transcriptMessages(history)...)
	msgs = append(msgs, ai.Message{
		Role:    ai.RoleUser,
		Content: "Schrijf nu het voortgangsrapport voor deze cliënt.",
	})

	content, completion, err := s.AI.Complete(ctx, s.Model, msgs)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)

	report, err := repo.CreateReport(ctx, s.DB, clientID, content, completion.ResponseID)
	if err != nil {
		return nil, err
	}
	return &GeneratedReport{Report: report, Completion: completion}, nil
}
