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

const (
	WaitlistStatusNone = "NONE"

	WaitlistDecisionAccept  = "accept"
	WaitlistDecisionDecline = "decline"
)

// WaitlistService is the access gate: one approval state per
// (property, buyer) pair controlling who sees the exact address and the
// seller's contact details, and who may open a negotiation at all.
type WaitlistService struct {
	cfg      *config.Config
	propRepo repositories.PropertyRepository
	wlRepo   repositories.WaitlistRepository
	userRepo repositories.UserRepository
	notifier *Notifier
}

func NewWaitlistService(
	cfg *config.Config,
	propRepo repositories.PropertyRepository,
	wlRepo repositories.WaitlistRepository,
	userRepo repositories.UserRepository,
	notifier *Notifier,
) *WaitlistService {
	return &WaitlistService{
		cfg:      cfg,
		propRepo: propRepo,
		wlRepo:   wlRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// RequestAccess opens a PENDING request for the pair and notifies the
// owner. Duplicate submissions conflict; whether a DECLINED buyer may
// re-apply is a policy flag (off by default).
func (s *WaitlistService) RequestAccess(
	ctx context.Context,
	buyerID uuid.UUID,
	req dtos.WaitlistCreateRequest,
) (*models.WaitlistRequest, error) {
	prop, err := s.propRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrNotFound
	}
	if prop.OwnerID == buyerID {
		return nil, utils.ValidationError("You cannot request access to your own property")
	}

	existing, err := s.wlRepo.GetByPropertyAndUser(ctx, req.PropertyID, buyerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status != models.WaitlistStatusDeclined {
			return nil, utils.ErrConflict
		}
		if !s.cfg.LDFlag_AllowReapplyAfterDecline {
			return nil, utils.ErrConflict
		}
	}

	wr := &models.WaitlistRequest{
		ID:         uuid.New(),
		PropertyID: req.PropertyID,
		UserID:     buyerID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Status:     models.WaitlistStatusPending,
	}

	n := newNotification(
		prop.OwnerID,
		models.NotificationWaitlistRequested,
		"New waitlist request",
		fmt.Sprintf("%s asked to see your property in %s", req.Name, prop.PublicLocation),
		waitlistProps(wr),
	)

	if err := s.wlRepo.CreateWithNotification(ctx, wr, n); err != nil {
		return nil, err
	}

	// Re-read so the caller and the feed see stored timestamps.
	created, err := s.wlRepo.GetByID(ctx, wr.ID)
	if err != nil || created == nil {
		created = wr
	}

	s.notifier.AnnounceWaitlist(created, prop.OwnerID, feed.OpInsert, n)
	return created, nil
}

// Decide moves a PENDING request to ACCEPTED or DECLINED. Only the
// property owner may decide; anyone else sees NotFound so request ids
// don't leak. Acceptance permanently unlocks the property's sensitive
// fields for the buyer and allows them to submit offers.
func (s *WaitlistService) Decide(
	ctx context.Context,
	requestID uuid.UUID,
	callerID uuid.UUID,
	decision string,
) (*models.WaitlistRequest, error) {
	wr, err := s.wlRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if wr == nil {
		return nil, utils.ErrNotFound
	}

	prop, err := s.propRepo.GetByID(ctx, wr.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, fmt.Errorf("property %s missing for waitlist request %s", wr.PropertyID, wr.ID)
	}
	if prop.OwnerID != callerID {
		return nil, utils.ErrNotFound
	}

	var newStatus models.WaitlistStatusType
	var n *models.Notification
	switch decision {
	case WaitlistDecisionAccept:
		newStatus = models.WaitlistStatusAccepted
		n = newNotification(
			wr.UserID,
			models.NotificationWaitlistAccepted,
			"Waitlist request accepted",
			fmt.Sprintf("The seller accepted your request for the property in %s. Address and contact details are now visible.", prop.PublicLocation),
			waitlistProps(wr),
		)
	case WaitlistDecisionDecline:
		newStatus = models.WaitlistStatusDeclined
		n = newNotification(
			wr.UserID,
			models.NotificationWaitlistDeclined,
			"Waitlist request declined",
			fmt.Sprintf("The seller declined your request for the property in %s.", prop.PublicLocation),
			waitlistProps(wr),
		)
	default:
		return nil, utils.ValidationError("decision must be accept or decline")
	}

	updated, err := s.wlRepo.DecideAtomic(ctx, wr.ID, wr.RowVersion, newStatus, n)
	if err != nil {
		// A concurrent decision got there first: from the caller's view
		// the request is no longer pending.
		if errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, utils.ErrInvalidTransition
		}
		return nil, err
	}

	s.notifier.AnnounceWaitlist(updated, prop.OwnerID, feed.OpUpdate, n)
	return updated, nil
}

// StatusFor is the read used to gate UI rendering; it never errors on a
// missing pair, it just reports NONE.
func (s *WaitlistService) StatusFor(
	ctx context.Context,
	propertyID, buyerID uuid.UUID,
) (*dtos.WaitlistStatusResponse, error) {
	wr, err := s.wlRepo.GetByPropertyAndUser(ctx, propertyID, buyerID)
	if err != nil {
		return nil, err
	}
	resp := &dtos.WaitlistStatusResponse{PropertyID: propertyID, Status: WaitlistStatusNone}
	if wr != nil {
		resp.Status = string(wr.Status)
		id := wr.ID
		resp.RequestID = &id
	}
	return resp, nil
}

// HasAcceptedAccess reports whether the buyer cleared the gate. Used by
// the offer flow as the precondition for creating an offer.
func (s *WaitlistService) HasAcceptedAccess(
	ctx context.Context,
	propertyID, buyerID uuid.UUID,
) (bool, error) {
	wr, err := s.wlRepo.GetByPropertyAndUser(ctx, propertyID, buyerID)
	if err != nil {
		return false, err
	}
	return wr != nil && wr.Status == models.WaitlistStatusAccepted, nil
}

// PropertyFor returns the gated read model of a listing: sensitive
// fields only for the owner and for accepted buyers.
func (s *WaitlistService) PropertyFor(
	ctx context.Context,
	propertyID, viewerID uuid.UUID,
) (*dtos.PropertyViewDTO, error) {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrNotFound
	}

	view := &dtos.PropertyViewDTO{
		PropertyID:     prop.ID,
		PublicLocation: prop.PublicLocation,
		AskingPrice:    prop.AskingPrice,
		MarketPrice:    prop.MarketPrice,
		RewardAmount:   prop.RewardAmount,
		AccessStatus:   WaitlistStatusNone,
	}

	unlocked := viewerID == prop.OwnerID
	if !unlocked {
		wr, err := s.wlRepo.GetByPropertyAndUser(ctx, propertyID, viewerID)
		if err != nil {
			return nil, err
		}
		if wr != nil {
			view.AccessStatus = string(wr.Status)
			unlocked = wr.Status == models.WaitlistStatusAccepted
		}
	} else {
		view.AccessStatus = string(models.WaitlistStatusAccepted)
	}

	if unlocked {
		addr := prop.ExactAddress
		view.ExactAddress = &addr
		owner, err := s.userRepo.GetByID(ctx, prop.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner != nil {
			view.SellerContact = &dtos.SellerContactDTO{
				Name:  owner.FirstName + " " + owner.LastName,
				Email: owner.Email,
				Phone: owner.Phone,
			}
		}
	}
	return view, nil
}

func (s *WaitlistService) ListForOwner(ctx context.Context, ownerID uuid.UUID) (*dtos.ListWaitlistResponse, error) {
	rows, err := s.wlRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return buildWaitlistList(rows), nil
}

func (s *WaitlistService) ListForBuyer(ctx context.Context, buyerID uuid.UUID) (*dtos.ListWaitlistResponse, error) {
	rows, err := s.wlRepo.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return buildWaitlistList(rows), nil
}

func buildWaitlistList(rows []*models.WaitlistRequest) *dtos.ListWaitlistResponse {
	results := make([]dtos.WaitlistRequestDTO, 0, len(rows))
	for _, wr := range rows {
		results = append(results, dtos.WaitlistRequestDTO{
			RequestID:  wr.ID,
			PropertyID: wr.PropertyID,
			BuyerID:    wr.UserID,
			Name:       wr.Name,
			Email:      wr.Email,
			Phone:      wr.Phone,
			Status:     string(wr.Status),
			CreatedAt:  wr.CreatedAt,
			UpdatedAt:  wr.UpdatedAt,
		})
	}
	return &dtos.ListWaitlistResponse{Results: results, Total: len(results)}
}
