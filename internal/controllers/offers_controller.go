package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dwelly/negotiation-service/internal/dtos"
	"github.com/dwelly/negotiation-service/internal/middleware"
	"github.com/dwelly/negotiation-service/internal/services"
	"github.com/dwelly/negotiation-service/internal/utils"
)

type OffersController struct {
	offers *services.OfferService
}

func NewOffersController(os *services.OfferService) *OffersController {
	return &OffersController{offers: os}
}

// ----------------------------------------------------------------
// POST /api/v1/offers
// ----------------------------------------------------------------
func (c *OffersController) CreateOfferHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	var body dtos.OfferCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "offer_amount must be a positive number", nil, err,
		)
		return
	}

	dto, svcErr := c.offers.CreateOffer(ctx, userID, body)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto)
}

// ----------------------------------------------------------------
// POST /api/v1/offers/{id}/respond
// ----------------------------------------------------------------
func (c *OffersController) RespondHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	offerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid offer id", nil, nil,
		)
		return
	}

	var body dtos.OfferRespondRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "action must be accept, decline or counter", nil, err,
		)
		return
	}

	dto, svcErr := c.offers.Respond(ctx, offerID, userID, body)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto)
}

// ----------------------------------------------------------------
// GET /api/v1/offers/{id}
// ----------------------------------------------------------------
func (c *OffersController) GetNegotiationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	offerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid offer id", nil, nil,
		)
		return
	}

	dto, svcErr := c.offers.GetNegotiation(ctx, offerID, userID)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto)
}

// ----------------------------------------------------------------
// GET /api/v1/offers/mine
// ----------------------------------------------------------------
func (c *OffersController) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	resp, err := c.offers.ListForBuyer(ctx, userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/offers/property/{id}
// ----------------------------------------------------------------
func (c *OffersController) ListForPropertyHandler(w http.ResponseWriter, r *http.Request) {
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

	resp, svcErr := c.offers.ListForProperty(ctx, propertyID, userID)
	if svcErr != nil {
		utils.HandleAppError(w, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
