// Client HTTP handlers.
//
// This file exposes REST endpoints for client profiles:
//   - GET   /clients             (list, any authenticated user)
//   - POST  /clients             (create, ADMIN)
//   - PATCH /clients/{clientId}  (partial update, ADMIN)
//
// Handlers are transport-thin: they validate input, call ClientService, and
// translate results into HTTP responses. Role enforcement for the mutating
// routes is done by the RequireAdmin middleware in the router.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
	"github.com/mwierda/coachhub-backend/internal/services"
)

//
// DTOs
//

// CreateClientRequest is the JSON payload for creating a client profile.
type CreateClientRequest struct {
	Name      string   `json:"name" example:"A. Jansen"`
	FocusArea string   `json:"focusArea,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Goals     []string `json:"goals,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
}

// UpdateClientRequest is the JSON payload for partially updating a profile.
// Absent fields are left untouched. CoachID distinguishes "not provided"
// (nil pointer, field absent) from "clear the assignment" (explicit null or
// empty string).
type UpdateClientRequest struct {
	Name      *string  `json:"name,omitempty"`
	FocusArea *string  `json:"focusArea,omitempty"`
	Summary   *string  `json:"summary,omitempty"`
	Goals     []string `json:"goals,omitempty"`
	AvatarURL *string  `json:"avatarUrl,omitempty"`
	CoachID   *string  `json:"coachId,omitempty"`

	// rawCoachProvided is set during decoding; see UnmarshalJSON below.
	rawCoachProvided bool
}

// UnmarshalJSON records whether the coachId key was present at all, which a
// plain pointer cannot express for explicit nulls.
func (r *UpdateClientRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateClientRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = UpdateClientRequest(a)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	_, r.rawCoachProvided = probe["coachId"]
	return nil
}

// ClientResponse wraps one client profile.
type ClientResponse struct {
	Client *domain.Client `json:"client"`
}

// ListClientsResponse wraps the profile listing.
type ListClientsResponse struct {
	Clients []domain.Client `json:"clients"`
}

//
// Handlers
//

// ListClients godoc
// @ID          listClients
// @Summary     List all client profiles
// @Tags        Clients
// @Produce     json
// @Success     200  {object}  handlers.ListClientsResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /clients [get]
func (h *Handlers) ListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "internal server error")
		return
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	ok(c, http.StatusOK, ListClientsResponse{Clients: clients})
}

// CreateClient godoc
// @ID          createClient
// @Summary     Create a client profile
// @Tags        Clients
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateClientRequest  true  "Profile payload"
// @Success     201  {object}  handlers.ClientResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Name missing"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Router      /clients [post]
func (h *Handlers) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Ongeldig verzoek")
		return
	}

	client, err := h.clients.Create(c.Request.Context(), req.Name, req.FocusArea, req.Summary, req.Goals, req.AvatarURL)
	if err != nil {
		if errors.Is(err, services.ErrEmptyName) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Naam is verplicht")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "internal server error")
		return
	}
	ok(c, http.StatusCreated, ClientResponse{Client: client})
}

// UpdateClient godoc
// @ID          updateClient
// @Summary     Partially update a client profile
// @Description Applies only the provided fields. Assigning a coach validates
// @Description that the referenced user exists and has the COACH role; an
// @Description explicit null clears the assignment.
// @Tags        Clients
// @Accept      json
// @Produce     json
// @Param       clientId  path  string  true  "Client ID (UUID)"  format(uuid)
// @Param       body      body  handlers.UpdateClientRequest  true  "Partial profile payload"
// @Success     200  {object}  handlers.ClientResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No changes or unknown coach"
// @Failure     404  {object}  handlers.ErrorResponse  "Client not found"
// @Router      /clients/{clientId} [patch]
func (h *Handlers) UpdateClient(c *gin.Context) {
	clientID := c.Param("clientId")

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Ongeldig verzoek")
		return
	}

	// Avatar-only updates take a fast path: they come from the image
	// uploader and must not be rejected as "no changes" when nothing else
	// is set.
	upd := repo.ClientUpdate{
		Name:      req.Name,
		FocusArea: req.FocusArea,
		Summary:   req.Summary,
		Goals:     req.Goals,
		AvatarURL: req.AvatarURL,
	}
	if req.rawCoachProvided {
		upd.SetCoach = true
		if req.CoachID != nil && *req.CoachID != "" {
			upd.CoachID = req.CoachID
		}
	}

	if upd.Name == nil && upd.FocusArea == nil && upd.Summary == nil &&
		upd.Goals == nil && upd.AvatarURL == nil && !upd.SetCoach {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Geen wijzigingen doorgegeven")
		return
	}

	client, err := h.clients.Update(c.Request.Context(), clientID, upd)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClientNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.MsgClientNotFound)
		case errors.Is(err, services.ErrCoachNotFound):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Geselecteerde coach bestaat niet.")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		}
		return
	}
	ok(c, http.StatusOK, ClientResponse{Client: client})
}
