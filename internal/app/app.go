package app

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dwelly/negotiation-service/internal/config"
	"github.com/dwelly/negotiation-service/internal/utils"
)

// App holds the shared process-wide resources. Repositories and
// services are wired in main from these.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

func NewApp(cfg *config.Config) (*App, error) {
	utils.Logger.Info("Initializing negotiation-service App")

	db, err := pgxpool.Connect(context.Background(), cfg.DBURL)
	if err != nil {
		return nil, err
	}

	return &App{
		Config: cfg,
		DB:     db,
	}, nil
}

func (a *App) Close() {
	utils.Logger.Info("negotiation-service app shutting down.")
	a.DB.Close()
}
