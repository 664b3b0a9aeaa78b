package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dwelly/negotiation-service/internal/dtos"
	"github.com/dwelly/negotiation-service/internal/middleware"
	"github.com/dwelly/negotiation-service/internal/services"
	"github.com/dwelly/negotiation-service/internal/utils"
)

type NotificationsController struct {
	notifier *services.Notifier
}

func NewNotificationsController(n *services.Notifier) *NotificationsController {
	return &NotificationsController{notifier: n}
}

// ----------------------------------------------------------------
// GET /api/v1/notifications?unread=1
// ----------------------------------------------------------------
func (c *NotificationsController) ListHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "1"
	rows, err := c.notifier.List(ctx, userID, unreadOnly)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	results := make([]dtos.NotificationDTO, 0, len(rows))
	for _, n := range rows {
		results = append(results, dtos.NotificationDTO{
			NotificationID: n.ID,
			Title:          n.Title,
			Message:        n.Message,
			Type:           string(n.Type),
			Properties:     n.Properties,
			Read:           n.Read,
			CreatedAt:      n.CreatedAt,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListNotificationsResponse{
		Results: results,
		Total:   len(results),
	})
}

// ----------------------------------------------------------------
// POST /api/v1/notifications/{id}/read
// ----------------------------------------------------------------
func (c *NotificationsController) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid notification id", nil, nil,
		)
		return
	}

	if err := c.notifier.MarkRead(ctx, userID, id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ----------------------------------------------------------------
// POST /api/v1/notifications/read-all
// ----------------------------------------------------------------
func (c *NotificationsController) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil, nil,
		)
		return
	}

	if err := c.notifier.MarkAllRead(ctx, userID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
