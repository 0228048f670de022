// Package docctx assembles the bounded document-context excerpt the agents
// receive. Given a client and the user's query it selects the most relevant
// extracted document texts, concatenates them up to a character budget, and
// reports which sources were actually included.
//
// The retriever re-verifies the caller's access to the client even though
// the orchestrator already did: this boundary hands out document content and
// must not rely on a check performed elsewhere.
package docctx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/authz"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
	"github.com/mwierda/coachhub-backend/internal/search"
)

// ErrForbidden is returned when the caller may not read the client's
// documents (including the client-not-found case, which is reported
// identically to avoid leaking existence).
var ErrForbidden = errors.New("docctx: access to client denied")

// Source describes one document that contributed to the excerpt.
type Source struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
}

// Excerpt is the bounded context block plus its provenance.
type Excerpt struct {
	ContextText string
	Sources     []Source
}

// Retriever ranks and truncates client document content.
type Retriever struct {
	DB          *gorm.DB
	Scorer      *search.Scorer
	BudgetChars int
}

// NewRetriever constructs a Retriever with the given character budget.
func NewRetriever(db *gorm.DB, budgetChars int) *Retriever {
	return &Retriever{
		DB:          db,
		Scorer:      search.NewScorer(),
		BudgetChars: budgetChars,
	}
}

// Retrieve returns an excerpt of at most BudgetChars characters assembled
// from the client's documents, most relevant to query first. A client
// without usable documents yields an empty excerpt, not an error.
func (r *Retriever) Retrieve(ctx context.Context, caller authz.Caller, clientID, query string) (*Excerpt, error) {
	decision, err := authz.CanAccessClient(ctx, r.DB, caller, clientID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, decision.Reason)
	}

	docs, err := repo.ListDocumentsWithContent(ctx, r.DB, clientID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 || r.BudgetChars <= 0 {
		return &Excerpt{}, nil
	}

	ranked := r.rank(docs, query)

	var (
		blocks  []string
		sources []Source
		used    int
	)
	for _, d := range ranked {
		remaining := r.BudgetChars - used
		if remaining <= 0 {
			break
		}
		block := formatBlock(d)
		if len(block) <= remaining {
			blocks = append(blocks, block)
			sources = append(sources, Source{DocumentID: d.ID, Name: d.OriginalName})
			used += len(block) + len(blockSeparator)
			continue
		}
		// Budget would split this source: keep whole paragraphs only.
		partial := truncateAtBoundary(d, remaining)
		if partial != "" {
			blocks = append(blocks, partial)
			sources = append(sources, Source{DocumentID: d.ID, Name: d.OriginalName})
			used += len(partial) + len(blockSeparator)
		}
		break
	}

	return &Excerpt{
		ContextText: strings.Join(blocks, blockSeparator),
		Sources:     sources,
	}, nil
}

const blockSeparator = "\n\n"

// rank orders documents by query relevance; ties (including the all-zero
// case of an unmatchable query) fall back to recency, which the repo
// already provides newest first.
func (r *Retriever) rank(docs []domain.Document, query string) []domain.Document {
	type scored struct {
		doc   domain.Document
		score float64
		pos   int
	}
	buf := make([]scored, 0, len(docs))
	for i, d := range docs {
		buf = append(buf, scored{doc: d, score: r.Scorer.Score(query, *d.Content), pos: i})
	}
	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].pos < buf[b].pos
	})
	out := make([]domain.Document, len(buf))
	for i := range buf {
		out[i] = buf[i].doc
	}
	return out
}

// formatBlock renders one document as a labeled unit.
func formatBlock(d domain.Document) string {
	return fmt.Sprintf("[Document: %s]\n%s", d.OriginalName, strings.TrimSpace(*d.Content))
}

// truncateAtBoundary fits as many whole paragraphs of the document as the
// remaining budget allows. Returns "" when not even the header plus the
// first paragraph fits; a source is never cut mid-paragraph.
func truncateAtBoundary(d domain.Document, budget int) string {
	header := fmt.Sprintf("[Document: %s]", d.OriginalName)
	if len(header) >= budget {
		return ""
	}
	paras := search.SplitParagraphs(*d.Content)
	out := header
	for _, p := range paras {
		candidate := out + "\n" + p
		if len(candidate) > budget {
			break
		}
		out = candidate
	}
	if out == header {
		return ""
	}
	return out
}
