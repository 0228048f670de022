// Report HTTP handlers.
//
// Per-client progress reports:
//   - GET  /clients/{clientId}/reports?limit=  (list, default 5)
//   - POST /clients/{clientId}/reports         (generate and persist)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/services"
	"github.com/mwierda/coachhub-backend/internal/utils"
)

const defaultReportLimit = 5

// ListReportsResponse wraps a client's report listing.
type ListReportsResponse struct {
	Reports []domain.Report `json:"reports"`
}

// GenerateReportResponse is the envelope for a freshly generated report.
type GenerateReportResponse struct {
	Report     *domain.Report `json:"report"`
	ResponseID string         `json:"responseId"`
}

// ListReports godoc
// @ID          listReports
// @Summary     List recent progress reports for a client
// @Tags        Reports
// @Produce     json
// @Param       clientId  path   string  true   "Client ID (UUID)"  format(uuid)
// @Param       limit     query  int     false  "Maximum number of reports"  default(5)
// @Success     200  {object}  handlers.ListReportsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Router      /clients/{clientId}/reports [get]
func (h *Handlers) ListReports(c *gin.Context) {
	clientID := c.Param("clientId")

	if _, authorized := h.authorizeClient(c, clientID); !authorized {
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), defaultReportLimit)
	reports, err := h.reports.List(c.Request.Context(), clientID, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	ok(c, http.StatusOK, ListReportsResponse{Reports: reports})
}

// GenerateReport godoc
// @ID          generateReport
// @Summary     Generate a progress report for a client
// @Description Builds the report from the report prompt, the client profile,
// @Description recent conversation, and the document excerpt, then persists it.
// @Tags        Reports
// @Produce     json
// @Param       clientId  path  string  true  "Client ID (UUID)"  format(uuid)
// @Success     201  {object}  handlers.GenerateReportResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /clients/{clientId}/reports [post]
func (h *Handlers) GenerateReport(c *gin.Context) {
	clientID := c.Param("clientId")

	cl, authorized := h.authorizeClient(c, clientID)
	if !authorized {
		return
	}

	res, err := h.reports.Generate(c.Request.Context(), cl, clientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, "Rapport genereren is mislukt.")
		return
	}
	ok(c, http.StatusCreated, GenerateReportResponse{
		Report:     res.Report,
		ResponseID: res.Completion.ResponseID,
	})
}
