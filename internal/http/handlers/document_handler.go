// Document HTTP handlers.
//
// This file exposes the per-client document endpoints:
//   - GET  /clients/{clientId}/documents  (list, newest first)
//   - POST /clients/{clientId}/documents  (multipart upload)
//
// Upload reads the multipart file, delegates storage and extraction to
// DocumentService, and returns the refreshed listing. Extraction failure is
// deliberately not an upload failure; the extraction outcome only shows up
// in the logs.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/http/middleware"
	"github.com/mwierda/coachhub-backend/internal/services"
)

// ListDocumentsResponse wraps a client's document listing.
type ListDocumentsResponse struct {
	Documents []domain.Document `json:"documents"`
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List a client's documents
// @Tags        Documents
// @Produce     json
// @Param       clientId  path  string  true  "Client ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.ListDocumentsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Router      /clients/{clientId}/documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	clientID := c.Param("clientId")

	if _, authorized := h.authorizeClient(c, clientID); !authorized {
		return
	}

	docs, err := h.docs.List(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	ok(c, http.StatusOK, ListDocumentsResponse{Documents: docs})
}

// UploadDocument godoc
// @ID          uploadDocument
// @Summary     Upload a document for a client
// @Description Stores the file, classifies it as TEXT or AUDIO, and extracts
// @Description content best-effort (raw text capture or transcription).
// @Description Extraction failure never fails the upload.
// @Tags        Documents
// @Accept      multipart/form-data
// @Produce     json
// @Param       clientId  path      string  true  "Client ID (UUID)"  format(uuid)
// @Param       file      formData  file    true  "File to upload"
// @Success     200  {object}  handlers.ListDocumentsResponse  "Refreshed listing"
// @Failure     400  {object}  handlers.ErrorResponse  "File missing or empty"
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Router      /clients/{clientId}/documents [post]
func (h *Handlers) UploadDocument(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := c.Param("clientId")

	if _, authorized := h.authorizeClient(c, clientID); !authorized {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Bestand is verplicht.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "internal server error")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "internal server error")
		return
	}

	res, err := h.docs.Upload(ctx, clientID, fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyFile):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Bestand is leeg.")
		case errors.Is(err, services.ErrClientNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "internal server error")
		}
		return
	}

	lg := middleware.LoggerFrom(c)
	ev := lg.Info()
	if res.Extraction.Failed {
		ev = lg.Warn().Str("extraction_error", res.Extraction.Reason)
	}
	ev.
		Str("client_id", clientID).
		Str("document_id", res.Document.ID).
		Str("kind", res.Document.Kind).
		Int64("size", res.Document.Size).
		Bool("extraction_skipped", res.Extraction.Skipped).
		Msg("document uploaded")

	docs, err := h.docs.List(ctx, clientID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}
	ok(c, http.StatusOK, ListDocumentsResponse{Documents: docs})
}
