package controllers

import (
	"net/http"

	"github.com/dwelly/negotiation-service/internal/app"
	"github.com/dwelly/negotiation-service/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(a *app.App) *HealthController {
	return &HealthController{app: a}
}

// ----------------------------------------------------------------
// GET /health
// ----------------------------------------------------------------
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.app.DB.Ping(r.Context()); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeUnavailable, "Database unreachable", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
