package main

import (
	"context"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/dwelly/negotiation-service/internal/app"
	"github.com/dwelly/negotiation-service/internal/config"
	"github.com/dwelly/negotiation-service/internal/controllers"
	"github.com/dwelly/negotiation-service/internal/feed"
	"github.com/dwelly/negotiation-service/internal/middleware"
	"github.com/dwelly/negotiation-service/internal/repositories"
	"github.com/dwelly/negotiation-service/internal/routes"
	"github.com/dwelly/negotiation-service/internal/services"
	"github.com/dwelly/negotiation-service/internal/utils"
)

func main() {
	utils.InitLogger("negotiation-service")
	cfg := config.LoadConfig()
	defer cfg.Close()

	a, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize app")
	}
	defer a.Close()

	rsaPublicKey, err := jwt.ParseRSAPublicKeyFromPEM(cfg.RSAPublicKeyPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := app.SeedDemoData(context.Background(), a.DB); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed demo data")
		}
	}

	// Repositories
	propRepo := repositories.NewPropertyRepository(a.DB)
	userRepo := repositories.NewUserRepository(a.DB)
	wlRepo := repositories.NewWaitlistRepository(a.DB)
	offerRepo := repositories.NewOfferRepository(a.DB)
	counterRepo := repositories.NewCounterOfferRepository(a.DB)
	notifRepo := repositories.NewNotificationRepository(a.DB)

	// Change feed hub
	hub := feed.NewHub()

	// Services
	notifier := services.NewNotifier(notifRepo, hub)
	waitlistService := services.NewWaitlistService(cfg, propRepo, wlRepo, userRepo, notifier)
	offerService := services.NewOfferService(cfg, propRepo, offerRepo, counterRepo, waitlistService, notifier)

	dispatch := services.NewDispatchService(cfg, notifRepo, userRepo)
	if err := dispatch.Start(); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to start notification dispatcher")
	}
	defer dispatch.Stop()

	// Controllers
	healthController := controllers.NewHealthController(a)
	waitlistController := controllers.NewWaitlistController(waitlistService)
	offersController := controllers.NewOffersController(offerService)
	notificationsController := controllers.NewNotificationsController(notifier)
	feedController := controllers.NewFeedController(hub)

	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods("GET")

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(rsaPublicKey))

	// Waitlist. Fixed paths are registered before the {id} routes so mux
	// does not swallow them as path parameters.
	secured.HandleFunc(routes.WaitlistMine, waitlistController.ListMineHandler).Methods("GET")
	secured.HandleFunc(routes.WaitlistOwner, waitlistController.ListOwnerHandler).Methods("GET")
	secured.HandleFunc(routes.WaitlistStatus, waitlistController.StatusHandler).Methods("GET")
	secured.HandleFunc(routes.Waitlist, waitlistController.RequestAccessHandler).Methods("POST")
	secured.HandleFunc(routes.WaitlistDecision, waitlistController.DecideHandler).Methods("POST")

	// Gated property view
	secured.HandleFunc(routes.Property, waitlistController.PropertyViewHandler).Methods("GET")

	// Offers
	secured.HandleFunc(routes.OffersMine, offersController.ListMineHandler).Methods("GET")
	secured.HandleFunc(routes.OffersProperty, offersController.ListForPropertyHandler).Methods("GET")
	secured.HandleFunc(routes.Offers, offersController.CreateOfferHandler).Methods("POST")
	secured.HandleFunc(routes.Offer, offersController.GetNegotiationHandler).Methods("GET")
	secured.HandleFunc(routes.OfferRespond, offersController.RespondHandler).Methods("POST")

	// Notifications
	secured.HandleFunc(routes.Notifications, notificationsController.ListHandler).Methods("GET")
	secured.HandleFunc(routes.NotificationsReadAll, notificationsController.MarkAllReadHandler).Methods("POST")
	secured.HandleFunc(routes.NotificationRead, notificationsController.MarkReadHandler).Methods("POST")

	// Change feed
	secured.HandleFunc(routes.Feed, feedController.SubscribeHandler).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	utils.Logger.Infof("%s listening on port %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, corsHandler); err != nil {
		utils.Logger.WithError(err).Fatal("Server terminated")
	}
}
