package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dwelly/negotiation-service/internal/dtos"
	"github.com/dwelly/negotiation-service/internal/middleware"
	"github.com/dwelly/negotiation-service/internal/services"
	"github.com/dwelly/negotiation-service/internal/utils"
)

var validate = validator.New()

type WaitlistController struct {
	waitlist *services.WaitlistService
}

func NewWaitlistController(ws *services.WaitlistService) *WaitlistController {
	return &WaitlistController{waitlist: ws}
}

// ----------------------------------------------------------------
// POST /api/v1/waitlist
// ----------------------------------------------------------------
func (c *WaitlistController) RequestAccessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	var body dtos.WaitlistCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing or malformed contact fields", nil, err,
		)
		return
	}

	wr, err := c.waitlist.RequestAccess(ctx, userID, body)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, wr)
}

// ----------------------------------------------------------------
// POST /api/v1/waitlist/{id}/decision
// ----------------------------------------------------------------
func (c *WaitlistController) DecideHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	requestID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request id", nil, nil,
		)
		return
	}

	var body dtos.WaitlistDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "decision must be accept or decline", nil, err,
		)
		return
	}

	wr, svcErr := c.waitlist.Decide(ctx, requestID, userID, body.Decision)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, wr)
}

// ----------------------------------------------------------------
// GET /api/v1/waitlist/status?property_id=...
// ----------------------------------------------------------------
func (c *WaitlistController) StatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	propertyID, err := uuid.Parse(r.URL.Query().Get("property_id"))
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "property_id is required", nil, nil,
		)
		return
	}

	resp, svcErr := c.waitlist.StatusFor(ctx, propertyID, userID)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/waitlist/mine
// ----------------------------------------------------------------
func (c *WaitlistController) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	resp, err := c.waitlist.ListForBuyer(ctx, userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/waitlist/owner
// ----------------------------------------------------------------
func (c *WaitlistController) ListOwnerHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	resp, err := c.waitlist.ListForOwner(ctx, userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *WaitlistController) PropertyViewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	propertyID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid property id", nil, nil,
		)
		return
	}

	view, svcErr := c.waitlist.PropertyFor(ctx, propertyID, userID)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}
