package controllers

import (
	"net/http"

	"github.com/dwelly/negotiation-service/internal/feed"
	"github.com/dwelly/negotiation-service/internal/middleware"
	"github.com/dwelly/negotiation-service/internal/utils"
)

type FeedController struct {
	hub *feed.Hub
}

func NewFeedController(hub *feed.Hub) *FeedController {
	return &FeedController{hub: hub}
}

// ----------------------------------------------------------------
// GET /api/v1/feed (websocket upgrade, ?cursor= resumes)
// ----------------------------------------------------------------
func (c *FeedController) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}
	feed.ServeWS(c.hub, w, r, userID)
}
