// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mwierda/coachhub-backend/internal/ai"
	"github.com/mwierda/coachhub-backend/internal/config"
	"github.com/mwierda/coachhub-backend/internal/docctx"
	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/http/handlers"
	"github.com/mwierda/coachhub-backend/internal/http/middleware"
	"github.com/mwierda/coachhub-backend/internal/repo"
	"github.com/mwierda/coachhub-backend/internal/services"
	"github.com/mwierda/coachhub-backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the authenticated API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (generous: uploads carry audio recordings)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, completions ai.CompletionClient, transcriber ai.Transcriber, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (32 MiB; document uploads include audio)
	r.Use(limitBody(32 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, clientID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, clientID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true, // session cookie auth needs credentials on an explicit allowlist
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/ai/storage
	retriever := docctx.NewRetriever(db, cfg.DocContextBudgetChars)
	store := storage.NewLocalStore(cfg.UploadDir)

	coachSvc := &services.CoachService{
		DB:              db,
		AI:              completions,
		Docs:            retriever,
		Model:           cfg.OpenAI.CoachModel,
		Window:          cfg.SessionWindow,
		DebugDocContext: cfg.DebugDocContext,
	}
	clientSvc := &services.ClientService{DB: db}
	docSvc := &services.DocumentService{DB: db, Store: store, Transcriber: transcriber}
	promptSvc := &services.PromptService{DB: db, AI: completions, Model: cfg.OpenAI.CoachModel}
	overseerSvc := &services.OverseerService{
		DB:     db,
		AI:     completions,
		Model:  cfg.OpenAI.OverseerModel,
		Window: cfg.SessionWindow,
	}
	reportSvc := &services.ReportService{
		DB:    db,
		AI:    completions,
		Docs:  retriever,
		Model: cfg.OpenAI.ReportModel,
	}
	fbSvc := &services.FeedbackService{DB: db}

	h := handlers.New(db, coachSvc, clientSvc, docSvc, promptSvc, overseerSvc, reportSvc, fbSvc)

	// Authenticated API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(db))
	{
		// Clients
		api.GET("/clients", h.ListClients)
		api.POST("/clients", middleware.RequireAdmin(), h.CreateClient)
		api.PATCH("/clients/:clientId", middleware.RequireAdmin(), h.UpdateClient)

		// Documents
		api.GET("/clients/:clientId/documents", h.ListDocuments)
		api.POST("/clients/:clientId/documents", h.UploadDocument)

		// Reports
		api.GET("/clients/:clientId/reports", h.ListReports)
		api.POST("/clients/:clientId/reports", h.GenerateReport)

		// Coach conversation
		api.GET("/coach/:clientId", h.GetCoachHistory)
		api.POST("/coach/:clientId", h.AnswerCoach)
		api.POST("/coach/:clientId/stream", h.StreamCoach)

		// Prompts (static paths per agent; refine must not shadow a param route)
		api.GET("/prompts/coach", h.GetPrompt(domain.AgentKindCoach))
		api.POST("/prompts/coach", middleware.RequireAdmin(), h.UpdatePrompt(domain.AgentKindCoach))
		api.GET("/prompts/overseer", h.GetPrompt(domain.AgentKindOverseer))
		api.POST("/prompts/overseer", middleware.RequireAdmin(), h.UpdatePrompt(domain.AgentKindOverseer))
		api.GET("/prompts/report", h.GetPrompt(domain.AgentKindReport))
		api.POST("/prompts/report", middleware.RequireAdmin(), h.UpdatePrompt(domain.AgentKindReport))
		api.POST("/prompts/refine", middleware.RequireAdmin(), h.RefinePrompt)

		// Overseer thread
		api.GET("/overseer", middleware.RequireAdmin(), h.GetOverseerThread)
		api.POST("/overseer", middleware.RequireAdmin(), h.AskOverseer)

		// Feedback
		api.POST("/messages/:id/feedback", h.LeaveFeedback)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
