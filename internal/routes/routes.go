package routes

const (
	// Health
	Health = "/health"

	// Waitlist (access gate)
	Waitlist             = "/api/v1/waitlist"
	WaitlistMine         = "/api/v1/waitlist/mine"
	WaitlistOwner        = "/api/v1/waitlist/owner"
	WaitlistStatus       = "/api/v1/waitlist/status"
	WaitlistDecision     = "/api/v1/waitlist/{id}/decision"

	// Gated property view
	Property = "/api/v1/properties/{id}"

	// Offers (negotiation)
	Offers         = "/api/v1/offers"
	OffersMine     = "/api/v1/offers/mine"
	OffersProperty = "/api/v1/offers/property/{id}"
	Offer          = "/api/v1/offers/{id}"
	OfferRespond   = "/api/v1/offers/{id}/respond"

	// Notifications
	Notifications        = "/api/v1/notifications"
	NotificationsReadAll = "/api/v1/notifications/read-all"
	NotificationRead     = "/api/v1/notifications/{id}/read"

	// Change feed (websocket)
	Feed = "/api/v1/feed"
)
