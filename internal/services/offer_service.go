package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dwelly/negotiation-service/internal/config"
	"github.com/dwelly/negotiation-service/internal/dtos"
	"github.com/dwelly/negotiation-service/internal/feed"
	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/repositories"
	"github.com/dwelly/negotiation-service/internal/utils"
)

// OfferService runs the negotiation state machine between one buyer and
// the property owner:
//
//	PENDING   → ACCEPTED | DECLINED | COUNTERED   (seller acts)
//	COUNTERED → ACCEPTED | DECLINED | COUNTERED   (party not holding the ball acts)
//	ACCEPTED, DECLINED                            (absorbing)
//
// The party who authored the newest counter may not act again until the
// other side responds. Every transition is one transaction: status
// update, counter append, counter-party notification.
type OfferService struct {
	cfg         *config.Config
	propRepo    repositories.PropertyRepository
	offerRepo   repositories.OfferRepository
	counterRepo repositories.CounterOfferRepository
	waitlist    *WaitlistService
	notifier    *Notifier
}

func NewOfferService(
	cfg *config.Config,
	propRepo repositories.PropertyRepository,
	offerRepo repositories.OfferRepository,
	counterRepo repositories.CounterOfferRepository,
	waitlist *WaitlistService,
	notifier *Notifier,
) *OfferService {
	return &OfferService{
		cfg:         cfg,
		propRepo:    propRepo,
		offerRepo:   offerRepo,
		counterRepo: counterRepo,
		waitlist:    waitlist,
		notifier:    notifier,
	}
}

// CreateOffer opens a negotiation. The buyer must hold accepted
// waitlist access, and may only run one live negotiation per property;
// a fresh offer after a terminal accept/decline is allowed.
func (s *OfferService) CreateOffer(
	ctx context.Context,
	buyerID uuid.UUID,
	req dtos.OfferCreateRequest,
) (*dtos.NegotiationDTO, error) {
	if req.OfferAmount <= 0 {
		return nil, utils.ValidationError("offer_amount must be positive")
	}

	prop, err := s.propRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrNotFound
	}
	if prop.OwnerID == buyerID {
		return nil, utils.ValidationError("You cannot make an offer on your own property")
	}

	accepted, err := s.waitlist.HasAcceptedAccess(ctx, req.PropertyID, buyerID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, utils.ErrNotAuthorized
	}

	if live, err := s.offerRepo.GetLiveByPropertyAndUser(ctx, req.PropertyID, buyerID); err != nil {
		return nil, err
	} else if live != nil {
		return nil, utils.ErrConflict
	}

	o := &models.Offer{
		ID:              uuid.New(),
		PropertyID:      req.PropertyID,
		UserID:          buyerID,
		SellerID:        prop.OwnerID,
		OfferAmount:     req.OfferAmount,
		IsInterested:    req.IsInterested,
		ProofOfFundsURL: req.ProofOfFundsURL,
		Status:          models.OfferStatusPending,
	}

	n := newNotification(
		prop.OwnerID,
		models.NotificationOfferReceived,
		"New offer received",
		fmt.Sprintf("A buyer offered %d for your property in %s", req.OfferAmount, prop.PublicLocation),
		offerProps(o, req.OfferAmount),
	)

	if err := s.offerRepo.CreateWithNotification(ctx, o, n); err != nil {
		return nil, err
	}

	created, err := s.offerRepo.GetByID(ctx, o.ID)
	if err != nil || created == nil {
		created = o
	}

	s.notifier.AnnounceOffer(created, nil, feed.OpInsert, n)
	return s.buildNegotiationDTO(ctx, created, buyerID)
}

// Respond applies accept, decline, or counter on behalf of callerID.
// Strangers get NotFound; the party holding the ball gets
// InvalidTransition, as does anyone acting on a closed negotiation.
func (s *OfferService) Respond(
	ctx context.Context,
	offerID uuid.UUID,
	callerID uuid.UUID,
	req dtos.OfferRespondRequest,
) (*dtos.NegotiationDTO, error) {
	o, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, utils.ErrNotFound
	}

	callerIsSeller := callerID == o.SellerID
	callerIsBuyer := callerID == o.UserID
	if !callerIsSeller && !callerIsBuyer {
		return nil, utils.ErrNotFound
	}

	if o.Terminal() {
		return nil, utils.ErrInvalidTransition
	}

	// Turn-taking: from PENDING only the seller acts; from COUNTERED
	// only the party that did not author the newest counter.
	switch o.Status {
	case models.OfferStatusPending:
		if !callerIsSeller {
			return nil, utils.ErrInvalidTransition
		}
	case models.OfferStatusCountered:
		latest, err := s.counterRepo.GetLatestByOffer(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, fmt.Errorf("offer %s is COUNTERED but has no counter rows", o.ID)
		}
		if latest.FromSeller == callerIsSeller {
			return nil, utils.ErrInvalidTransition
		}
	}

	var (
		newStatus models.OfferStatusType
		counter   *models.CounterOffer
		n         *models.Notification
	)

	recipient := o.SellerID
	if callerIsSeller {
		recipient = o.UserID
	}

	switch req.Action {
	case dtos.OfferActionAccept:
		newStatus = models.OfferStatusAccepted
		amount, err := s.effectiveAmount(ctx, o)
		if err != nil {
			return nil, err
		}
		n = newNotification(
			recipient,
			models.NotificationOfferAccepted,
			"Offer accepted",
			fmt.Sprintf("Your negotiation closed at %d", amount),
			offerProps(o, amount),
		)
	case dtos.OfferActionDecline:
		newStatus = models.OfferStatusDeclined
		n = newNotification(
			recipient,
			models.NotificationOfferDeclined,
			"Offer declined",
			"The other party declined the offer",
			offerProps(o, 0),
		)
	case dtos.OfferActionCounter:
		if req.Amount <= 0 {
			return nil, utils.ValidationError("amount must be positive for a counter")
		}
		newStatus = models.OfferStatusCountered
		counter = &models.CounterOffer{
			ID:         uuid.New(),
			OfferID:    o.ID,
			Amount:     req.Amount,
			FromSeller: callerIsSeller,
		}
		props := offerProps(o, req.Amount)
		props["counter_offer_id"] = counter.ID.String()
		n = newNotification(
			recipient,
			models.NotificationOfferCountered,
			"New counter-offer",
			fmt.Sprintf("The other party countered at %d", req.Amount),
			props,
		)
	default:
		return nil, utils.ValidationError("action must be accept, decline or counter")
	}

	updated, err := s.offerRepo.TransitionAtomic(ctx, o.ID, o.RowVersion, newStatus, counter, n)
	if err != nil {
		// The offer moved under the caller; whatever they were
		// responding to no longer holds.
		if errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, utils.ErrInvalidTransition
		}
		return nil, err
	}

	s.notifier.AnnounceOffer(updated, counter, feed.OpUpdate, n)
	return s.buildNegotiationDTO(ctx, updated, callerID)
}

// GetNegotiation returns the merged read model for one of the two
// parties; anyone else gets NotFound.
func (s *OfferService) GetNegotiation(
	ctx context.Context,
	offerID uuid.UUID,
	callerID uuid.UUID,
) (*dtos.NegotiationDTO, error) {
	o, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil || (callerID != o.UserID && callerID != o.SellerID) {
		return nil, utils.ErrNotFound
	}
	return s.buildNegotiationDTO(ctx, o, callerID)
}

// ListForProperty lists every negotiation on a property for its owner.
func (s *OfferService) ListForProperty(
	ctx context.Context,
	propertyID uuid.UUID,
	callerID uuid.UUID,
) (*dtos.ListNegotiationsResponse, error) {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil || prop.OwnerID != callerID {
		return nil, utils.ErrNotFound
	}

	offers, err := s.offerRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return s.buildNegotiationList(ctx, offers, callerID)
}

func (s *OfferService) ListForBuyer(
	ctx context.Context,
	buyerID uuid.UUID,
) (*dtos.ListNegotiationsResponse, error) {
	offers, err := s.offerRepo.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.buildNegotiationList(ctx, offers, buyerID)
}

// ---------------------------------------------------------------
// read-model helpers
// ---------------------------------------------------------------

func (s *OfferService) effectiveAmount(ctx context.Context, o *models.Offer) (int64, error) {
	latest, err := s.counterRepo.GetLatestByOffer(ctx, o.ID)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return o.OfferAmount, nil
	}
	return latest.Amount, nil
}

func (s *OfferService) buildNegotiationDTO(
	ctx context.Context,
	o *models.Offer,
	viewerID uuid.UUID,
) (*dtos.NegotiationDTO, error) {
	counters, err := s.counterRepo.ListByOffer(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return buildNegotiationDTO(o, counters, viewerID), nil
}

func (s *OfferService) buildNegotiationList(
	ctx context.Context,
	offers []*models.Offer,
	viewerID uuid.UUID,
) (*dtos.ListNegotiationsResponse, error) {
	results := make([]dtos.NegotiationDTO, 0, len(offers))
	for _, o := range offers {
		dto, err := s.buildNegotiationDTO(ctx, o, viewerID)
		if err != nil {
			return nil, err
		}
		results = append(results, *dto)
	}
	return &dtos.ListNegotiationsResponse{Results: results, Total: len(results)}, nil
}

// buildNegotiationDTO computes the effective amount and the
// viewer-relative turn flag from the offer and its ordered counters.
func buildNegotiationDTO(
	o *models.Offer,
	counters []*models.CounterOffer,
	viewerID uuid.UUID,
) *dtos.NegotiationDTO {
	role := dtos.NegotiationRoleBuyer
	viewerIsSeller := viewerID == o.SellerID
	if viewerIsSeller {
		role = dtos.NegotiationRoleSeller
	}

	effective := o.OfferAmount
	counterDTOs := make([]dtos.CounterOfferDTO, 0, len(counters))
	for _, c := range counters {
		effective = c.Amount
		counterDTOs = append(counterDTOs, dtos.CounterOfferDTO{
			CounterOfferID: c.ID,
			Amount:         c.Amount,
			FromSeller:     c.FromSeller,
			CreatedAt:      c.CreatedAt,
		})
	}

	yourTurn := false
	switch o.Status {
	case models.OfferStatusPending:
		yourTurn = viewerIsSeller
	case models.OfferStatusCountered:
		if len(counters) > 0 {
			yourTurn = counters[len(counters)-1].FromSeller != viewerIsSeller
		}
	}

	return &dtos.NegotiationDTO{
		OfferID:         o.ID,
		PropertyID:      o.PropertyID,
		BuyerID:         o.UserID,
		SellerID:        o.SellerID,
		Status:          string(o.Status),
		OriginalAmount:  o.OfferAmount,
		EffectiveAmount: effective,
		IsInterested:    o.IsInterested,
		ProofOfFundsURL: o.ProofOfFundsURL,
		Role:            role,
		YourTurn:        yourTurn,
		Counters:        counterDTOs,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
