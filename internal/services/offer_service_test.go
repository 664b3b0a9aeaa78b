package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwelly/negotiation-service/internal/dtos"
	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/utils"
)

func offerReq(propertyID uuid.UUID, amount int64) dtos.OfferCreateRequest {
	return dtos.OfferCreateRequest{
		PropertyID:   propertyID,
		OfferAmount:  amount,
		IsInterested: true,
	}
}

func TestCreateOfferRequiresAcceptedAccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// No waitlist request at all.
	_, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	assert.ErrorIs(t, err, utils.ErrNotAuthorized)

	// Pending is not enough either.
	_, err = env.waitlist.RequestAccess(ctx, env.buyerID, waitlistReq(env.propertyID))
	require.NoError(t, err)
	_, err = env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	assert.ErrorIs(t, err, utils.ErrNotAuthorized)
}

func TestCreateOfferHappyPath(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)
	assert.Equal(t, string(models.OfferStatusPending), dto.Status)
	assert.Equal(t, int64(300000), dto.OriginalAmount)
	assert.Equal(t, int64(300000), dto.EffectiveAmount)
	assert.Equal(t, dtos.NegotiationRoleBuyer, dto.Role)
	assert.False(t, dto.YourTurn)
	assert.Equal(t, env.sellerID, dto.SellerID)

	// The seller got exactly one OFFER_RECEIVED with correlation ids.
	var offerNotifs []*models.Notification
	for _, n := range env.store.notificationsFor(env.sellerID) {
		if n.Type == models.NotificationOfferReceived {
			offerNotifs = append(offerNotifs, n)
		}
	}
	require.Len(t, offerNotifs, 1)
	assert.Equal(t, dto.OfferID.String(), offerNotifs[0].Properties["offer_id"])
	assert.Equal(t, env.propertyID.String(), offerNotifs[0].Properties["property_id"])
}

func TestCreateOfferUnknownPropertyNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.offers.CreateOffer(context.Background(), env.buyerID, offerReq(uuid.New(), 300000))
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestCreateOfferOnOwnPropertyRejected(t *testing.T) {
	env := newTestEnv()

	_, err := env.offers.CreateOffer(context.Background(), env.sellerID, offerReq(env.propertyID, 300000))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestCreateOfferSecondLiveOfferConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	_, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)

	_, err = env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 310000))
	assert.ErrorIs(t, err, utils.ErrConflict)
}

// Full back-and-forth: 300000 → seller 320000 → buyer 310000 → seller
// accepts. The effective amount tracks the newest counter at every step
// and the closing notification carries the final figure.
func TestCounterChainAndAccept(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)
	offerID := dto.OfferID

	dto, err = env.offers.Respond(ctx, offerID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionCounter, Amount: 320000,
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.OfferStatusCountered), dto.Status)
	assert.Equal(t, int64(320000), dto.EffectiveAmount)
	assert.Equal(t, int64(300000), dto.OriginalAmount)
	assert.False(t, dto.YourTurn) // seller just moved; ball is with the buyer

	dto, err = env.offers.Respond(ctx, offerID, env.buyerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionCounter, Amount: 310000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(310000), dto.EffectiveAmount)
	require.Len(t, dto.Counters, 2)
	assert.True(t, dto.Counters[0].FromSeller)
	assert.False(t, dto.Counters[1].FromSeller)

	dto, err = env.offers.Respond(ctx, offerID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionAccept,
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.OfferStatusAccepted), dto.Status)
	assert.Equal(t, int64(310000), dto.EffectiveAmount)

	var accepted *models.Notification
	for _, n := range env.store.notificationsFor(env.buyerID) {
		if n.Type == models.NotificationOfferAccepted {
			accepted = n
		}
	}
	require.NotNil(t, accepted)
	assert.Equal(t, "310000", accepted.Properties["amount"])
}

func TestRespondTurnTaking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)
	offerID := dto.OfferID

	// From PENDING only the seller may act.
	_, err = env.offers.Respond(ctx, offerID, env.buyerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionAccept,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = env.offers.Respond(ctx, offerID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionCounter, Amount: 320000,
	})
	require.NoError(t, err)

	// The seller authored the newest counter and must now wait.
	_, err = env.offers.Respond(ctx, offerID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionCounter, Amount: 330000,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = env.offers.Respond(ctx, offerID, env.buyerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionDecline,
	})
	require.NoError(t, err)
}

func TestRespondTerminalIsAbsorbing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)

	_, err = env.offers.Respond(ctx, dto.OfferID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionDecline,
	})
	require.NoError(t, err)

	for _, caller := range []uuid.UUID{env.sellerID, env.buyerID} {
		_, err = env.offers.Respond(ctx, dto.OfferID, caller, dtos.OfferRespondRequest{
			Action: dtos.OfferActionAccept,
		})
		assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	}
}

func TestRespondStrangerSeesNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)

	_, err = env.offers.Respond(ctx, dto.OfferID, uuid.New(), dtos.OfferRespondRequest{
		Action: dtos.OfferActionAccept,
	})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestRespondCounterNeedsPositiveAmount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)

	_, err = env.offers.Respond(ctx, dto.OfferID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionCounter,
	})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestNewOfferAllowedAfterTerminal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	first, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)
	_, err = env.offers.Respond(ctx, first.OfferID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionDecline,
	})
	require.NoError(t, err)

	second, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 310000))
	require.NoError(t, err)
	assert.NotEqual(t, first.OfferID, second.OfferID)
	assert.Equal(t, string(models.OfferStatusPending), second.Status)
}

func TestExactlyOneNotificationPerTransition(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	sellerBefore := len(env.store.notificationsFor(env.sellerID))
	buyerBefore := len(env.store.notificationsFor(env.buyerID))

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)
	assert.Len(t, env.store.notificationsFor(env.sellerID), sellerBefore+1)

	_, err = env.offers.Respond(ctx, dto.OfferID, env.sellerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionCounter, Amount: 320000,
	})
	require.NoError(t, err)
	assert.Len(t, env.store.notificationsFor(env.buyerID), buyerBefore+1)

	_, err = env.offers.Respond(ctx, dto.OfferID, env.buyerID, dtos.OfferRespondRequest{
		Action: dtos.OfferActionAccept,
	})
	require.NoError(t, err)
	assert.Len(t, env.store.notificationsFor(env.sellerID), sellerBefore+2)
	assert.Len(t, env.store.notificationsFor(env.buyerID), buyerBefore+1)
}

func TestGetNegotiationVisibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	dto, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)

	asSeller, err := env.offers.GetNegotiation(ctx, dto.OfferID, env.sellerID)
	require.NoError(t, err)
	assert.Equal(t, dtos.NegotiationRoleSeller, asSeller.Role)
	assert.True(t, asSeller.YourTurn)

	asBuyer, err := env.offers.GetNegotiation(ctx, dto.OfferID, env.buyerID)
	require.NoError(t, err)
	assert.Equal(t, dtos.NegotiationRoleBuyer, asBuyer.Role)
	assert.False(t, asBuyer.YourTurn)

	_, err = env.offers.GetNegotiation(ctx, dto.OfferID, uuid.New())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListForPropertyOwnerOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.grantAccess(t, ctx)

	_, err := env.offers.CreateOffer(ctx, env.buyerID, offerReq(env.propertyID, 300000))
	require.NoError(t, err)

	list, err := env.offers.ListForProperty(ctx, env.propertyID, env.sellerID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	_, err = env.offers.ListForProperty(ctx, env.propertyID, env.buyerID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
