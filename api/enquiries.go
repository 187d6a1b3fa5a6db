package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/garnizeh/crm/internal/apperr"
	"github.com/garnizeh/crm/internal/enquiry"
	"github.com/garnizeh/crm/internal/models"
	"github.com/gorilla/mux"
)

type EnquiryService interface {
	Submit(ctx context.Context, in enquiry.SubmitInput) (*models.EnquiryReceipt, error)
	ListUnclaimed(ctx context.Context) ([]models.Enquiry, error)
	ListOwned(ctx context.Context, employeeID int64) ([]models.Enquiry, error)
	Claim(ctx context.Context, enquiryID, employeeID int64) (*enquiry.ClaimResult, error)
}

type EnquiriesHandler struct {
	enquiries EnquiryService
	schemas   bodySchemas
}

func NewEnquiriesHandler(s EnquiryService) *EnquiriesHandler {
	return &EnquiriesHandler{enquiries: s, schemas: mustLoadBodySchemas()}
}

type submitRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	CourseInterest *string `json:"courseInterest"`
}

type submitResponse struct {
	Message string                 `json:"message"`
	Enquiry *models.EnquiryReceipt `json:"enquiry"`
}

type listResponse struct {
	Enquiries []models.Enquiry `json:"enquiries"`
}

type claimResponse struct {
	Message string          `json:"message"`
	Enquiry *models.Enquiry `json:"enquiry"`
}

// Submit is the anonymous intake endpoint.
func (h *EnquiriesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := h.schemas.decode(w, r, "enquiry", &req); err != nil {
		writeError(w, r, err, "Could not submit enquiry right now.")
		return
	}

	receipt, err := h.enquiries.Submit(r.Context(), enquiry.SubmitInput{
		Name:           req.Name,
		Email:          req.Email,
		CourseInterest: req.CourseInterest,
	})
	if err != nil {
		writeError(w, r, err, "Could not submit enquiry right now.")
		return
	}

	writeJSON(w, submitResponse{Message: enquiry.MsgSubmitted, Enquiry: receipt}, http.StatusCreated)
}

func (h *EnquiriesHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	list, err := h.enquiries.ListUnclaimed(r.Context())
	if err != nil {
		writeError(w, r, err, "Unable to fetch public enquiries.")
		return
	}

	writeJSON(w, listResponse{Enquiries: list}, http.StatusOK)
}

// ListPrivate lists the caller's own enquiries; the id always comes from the token.
func (h *EnquiriesHandler) ListPrivate(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		writeError(w, r, err, "Unable to fetch private enquiries.")
		return
	}

	list, err := h.enquiries.ListOwned(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "Unable to fetch private enquiries.")
		return
	}

	writeJSON(w, listResponse{Enquiries: list}, http.StatusOK)
}

func (h *EnquiriesHandler) Claim(w http.ResponseWriter, r *http.Request) {
	employeeID, err := callerID(r)
	if err != nil {
		writeError(w, r, err, "Unable to claim enquiry.")
		return
	}

	enquiryID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, apperr.NotFound("Enquiry not found."), "Unable to claim enquiry.")
		return
	}

	res, err := h.enquiries.Claim(r.Context(), enquiryID, employeeID)
	if err != nil {
		writeError(w, r, err, "Unable to claim enquiry.")
		return
	}

	writeJSON(w, claimResponse{Message: res.Message(), Enquiry: res.Enquiry}, http.StatusOK)
}
