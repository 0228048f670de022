// Package services – prompt composition
//
// Helpers that assemble the system instruction and transcript handed to the
// completion backend. The coach and report pipelines share the client-fact
// line and the delimited document-context section; the transcript labeling
// applies to every agent that replays stored history.

package services

import (
	"fmt"
	"strings"

	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/domain"
)

const (
	docContextOpen  = "<<<CLIENT_DOCUMENT_CONTEXT>>>"
	docContextClose = "<<<END_CLIENT_DOCUMENT_CONTEXT>>>"
)

// buildCoachSystemPrompt joins the role prompt, a factual line about the
// client, and the delimited document-context section. The context section is
// omitted entirely when no excerpt was retrieved.
func buildCoachSystemPrompt(basePrompt string, client *domain.Client, contextText string) string {
	goals := "Nog geen doelen vastgelegd"
	if list := client.GoalList(); len(list) > 0 {
		goals = strings.Join(list, "; ")
	}
	parts := []string{
		basePrompt,
		fmt.Sprintf("Cliënt: %s. Focus: %s. Samenvatting: %s. Doelen: %s.",
			client.Name, client.FocusArea, client.Summary, goals),
	}
	if section := buildDocumentContextSection(contextText); section != "" {
		parts = append(parts, section)
	}
	return strings.Join(parts, "\n\n")
}

// buildDocumentContextSection wraps the excerpt in unambiguous delimiters so
// the model can tell supporting evidence apart from instructions. Empty
// excerpts produce no section at all.
func buildDocumentContextSection(contextText string) string {
	trimmed := strings.TrimSpace(contextText)
	if trimmed == "" {
		return ""
	}
	return strings.Join([]string{
		"CLIENT_DOCUMENT_CONTEXT",
		"Gebruik alleen deze context als ondersteunend bewijs; verzin geen ontbrekende details.",
		docContextOpen,
		trimmed,
		docContextClose,
	}, "\n")
}

// normalizeRole maps stored roles onto the chat roles the backend accepts.
// Anything unexpected degrades to "user".
func normalizeRole(role string) string {
	if role == ai.RoleAssistant || role == ai.RoleSystem {
		return role
	}
	return ai.RoleUser
}

// formatMessageForAgent prefixes a stored turn with its provenance so the
// model can distinguish the human coach from its own earlier replies.
func formatMessageForAgent(m domain.Message) string {
	label := "AI-coach"
	if m.Source == domain.SourceHuman {
		label = "Menselijke coach"
	}
	return fmt.Sprintf("[%s · rol: %s]\n%s", label, m.Role, m.Content)
}

// transcriptMessages converts stored history into backend chat messages,
// oldest first, with provenance labels applied.
func transcriptMessages(history []domain.Message) []ai.Message {
	out := make([]ai.Message, 0, len(history))
	for _, m := range history {
		out = append(out, ai.Message{
			Role:    normalizeRole(m.Role),
			Content: formatMessageForAgent(m),
		})
	}
	return out
}
