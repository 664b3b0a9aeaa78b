package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dwelly/negotiation-service/internal/config"
	"github.com/dwelly/negotiation-service/internal/feed"
	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/utils"
)

// memStore is a single in-memory backing store shared by the fake
// repositories, so the cross-repo behavior of the real SQL layer
// (notifications written in the transition transaction, counters
// readable right after TransitionAtomic) holds in tests too.
type memStore struct {
	props    map[uuid.UUID]*models.Property
	users    map[uuid.UUID]*models.User
	waitlist []*models.WaitlistRequest
	offers   []*models.Offer
	counters []*models.CounterOffer
	notifs   []*models.Notification
}

func newMemStore() *memStore {
	return &memStore{
		props: make(map[uuid.UUID]*models.Property),
		users: make(map[uuid.UUID]*models.User),
	}
}

// ----- properties -----

type fakePropertyRepo struct{ s *memStore }

func (r *fakePropertyRepo) Create(_ context.Context, p *models.Property) error {
	r.s.props[p.ID] = p
	return nil
}

func (r *fakePropertyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	return r.s.props[id], nil
}

// ----- users -----

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.s.users[id], nil
}

// ----- waitlist -----

type fakeWaitlistRepo struct{ s *memStore }

func (r *fakeWaitlistRepo) CreateWithNotification(
	_ context.Context,
	wr *models.WaitlistRequest,
	n *models.Notification,
) error {
	for _, existing := range r.s.waitlist {
		if existing.PropertyID == wr.PropertyID &&
			existing.UserID == wr.UserID &&
			existing.Status != models.WaitlistStatusDeclined {
			return utils.ErrConflict
		}
	}
	wr.RowVersion = 1
	wr.CreatedAt = time.Now()
	wr.UpdatedAt = wr.CreatedAt
	r.s.waitlist = append(r.s.waitlist, wr)
	if n != nil {
		n.CreatedAt = time.Now()
		r.s.notifs = append(r.s.notifs, n)
	}
	return nil
}

func (r *fakeWaitlistRepo) GetByID(_ context.Context, id uuid.UUID) (*models.WaitlistRequest, error) {
	for _, wr := range r.s.waitlist {
		if wr.ID == id {
			return wr, nil
		}
	}
	return nil, nil
}

func (r *fakeWaitlistRepo) GetByPropertyAndUser(
	_ context.Context,
	propertyID, userID uuid.UUID,
) (*models.WaitlistRequest, error) {
	var newest *models.WaitlistRequest
	for _, wr := range r.s.waitlist {
		if wr.PropertyID == propertyID && wr.UserID == userID {
			newest = wr
		}
	}
	return newest, nil
}

func (r *fakeWaitlistRepo) ListByProperty(_ context.Context, propertyID uuid.UUID) ([]*models.WaitlistRequest, error) {
	var out []*models.WaitlistRequest
	for _, wr := range r.s.waitlist {
		if wr.PropertyID == propertyID {
			out = append(out, wr)
		}
	}
	return out, nil
}

func (r *fakeWaitlistRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.WaitlistRequest, error) {
	var out []*models.WaitlistRequest
	for _, wr := range r.s.waitlist {
		if p := r.s.props[wr.PropertyID]; p != nil && p.OwnerID == ownerID {
			out = append(out, wr)
		}
	}
	return out, nil
}

func (r *fakeWaitlistRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.WaitlistRequest, error) {
	var out []*models.WaitlistRequest
	for _, wr := range r.s.waitlist {
		if wr.UserID == userID {
			out = append(out, wr)
		}
	}
	return out, nil
}

func (r *fakeWaitlistRepo) DecideAtomic(
	ctx context.Context,
	requestID uuid.UUID,
	expectedVersion int64,
	newStatus models.WaitlistStatusType,
	n *models.Notification,
) (*models.WaitlistRequest, error) {
	wr, _ := r.GetByID(ctx, requestID)
	if wr == nil {
		return nil, utils.ErrNotFound
	}
	if wr.RowVersion != expectedVersion {
		return wr, utils.ErrRowVersionConflict
	}
	if wr.Terminal() {
		return nil, utils.ErrInvalidTransition
	}
	wr.Status = newStatus
	wr.RowVersion++
	wr.UpdatedAt = time.Now()
	if n != nil {
		n.CreatedAt = time.Now()
		r.s.notifs = append(r.s.notifs, n)
	}
	return wr, nil
}

// ----- offers -----

type fakeOfferRepo struct{ s *memStore }

func (r *fakeOfferRepo) CreateWithNotification(
	ctx context.Context,
	o *models.Offer,
	n *models.Notification,
) error {
	if live, _ := r.GetLiveByPropertyAndUser(ctx, o.PropertyID, o.UserID); live != nil {
		return utils.ErrConflict
	}
	o.RowVersion = 1
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	r.s.offers = append(r.s.offers, o)
	if n != nil {
		n.CreatedAt = time.Now()
		r.s.notifs = append(r.s.notifs, n)
	}
	return nil
}

func (r *fakeOfferRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Offer, error) {
	for _, o := range r.s.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOfferRepo) GetLiveByPropertyAndUser(
	_ context.Context,
	propertyID, userID uuid.UUID,
) (*models.Offer, error) {
	for _, o := range r.s.offers {
		if o.PropertyID == propertyID && o.UserID == userID && !o.Terminal() {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOfferRepo) ListByProperty(_ context.Context, propertyID uuid.UUID) ([]*models.Offer, error) {
	var out []*models.Offer
	for _, o := range r.s.offers {
		if o.PropertyID == propertyID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	var out []*models.Offer
	for _, o := range r.s.offers {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) TransitionAtomic(
	ctx context.Context,
	offerID uuid.UUID,
	expectedVersion int64,
	newStatus models.OfferStatusType,
	counter *models.CounterOffer,
	n *models.Notification,
) (*models.Offer, error) {
	o, _ := r.GetByID(ctx, offerID)
	if o == nil {
		return nil, utils.ErrNotFound
	}
	if o.RowVersion != expectedVersion {
		return o, utils.ErrRowVersionConflict
	}
	if o.Terminal() {
		return nil, utils.ErrInvalidTransition
	}
	o.Status = newStatus
	o.RowVersion++
	o.UpdatedAt = time.Now()
	if counter != nil {
		counter.CreatedAt = time.Now()
		r.s.counters = append(r.s.counters, counter)
	}
	if n != nil {
		n.CreatedAt = time.Now()
		r.s.notifs = append(r.s.notifs, n)
	}
	return o, nil
}

// ----- counter offers -----

type fakeCounterOfferRepo struct{ s *memStore }

func (r *fakeCounterOfferRepo) ListByOffer(_ context.Context, offerID uuid.UUID) ([]*models.CounterOffer, error) {
	var out []*models.CounterOffer
	for _, c := range r.s.counters {
		if c.OfferID == offerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCounterOfferRepo) GetLatestByOffer(_ context.Context, offerID uuid.UUID) (*models.CounterOffer, error) {
	var latest *models.CounterOffer
	for _, c := range r.s.counters {
		if c.OfferID == offerID {
			latest = c
		}
	}
	return latest, nil
}

// ----- notifications -----

type fakeNotificationRepo struct{ s *memStore }

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()
	r.s.notifs = append(r.s.notifs, n)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	for _, n := range r.s.notifs {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]*models.Notification, error) {
	var out []*models.Notification
	for i := len(r.s.notifs) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.s.notifs[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID) (bool, error) {
	for _, n := range r.s.notifs {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range r.s.notifs {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) ListDueForDispatch(
	_ context.Context,
	now time.Time,
	limit int,
) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range r.s.notifs {
		if len(out) >= limit {
			break
		}
		if n.DispatchStatus != models.DispatchStatusSent &&
			n.DispatchStatus != models.DispatchStatusFailed &&
			(n.NextAttemptAt == nil || !n.NextAttemptAt.After(now)) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	n, _ := r.GetByID(ctx, id)
	if n != nil {
		now := time.Now()
		n.DispatchStatus = models.DispatchStatusSent
		n.DispatchedAt = &now
	}
	return nil
}

func (r *fakeNotificationRepo) MarkDispatchFailed(
	ctx context.Context,
	id uuid.UUID,
	attempts int,
	nextAttempt time.Time,
	terminal bool,
) error {
	n, _ := r.GetByID(ctx, id)
	if n != nil {
		n.Attempts = attempts
		n.NextAttemptAt = &nextAttempt
		if terminal {
			n.DispatchStatus = models.DispatchStatusFailed
		}
	}
	return nil
}

// notificationsFor filters the store's notification log for assertions.
func (s *memStore) notificationsFor(userID uuid.UUID) []*models.Notification {
	var out []*models.Notification
	for _, n := range s.notifs {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// ----- wiring -----

type testEnv struct {
	store    *memStore
	cfg      *config.Config
	hub      *feed.Hub
	notifier *Notifier
	waitlist *WaitlistService
	offers   *OfferService

	sellerID   uuid.UUID
	buyerID    uuid.UUID
	propertyID uuid.UUID
}

func newTestEnv() *testEnv {
	store := newMemStore()
	cfg := &config.Config{AppName: "negotiation-service-test"}
	hub := feed.NewHub()

	notifier := NewNotifier(&fakeNotificationRepo{s: store}, hub)
	waitlist := NewWaitlistService(
		cfg,
		&fakePropertyRepo{s: store},
		&fakeWaitlistRepo{s: store},
		&fakeUserRepo{s: store},
		notifier,
	)
	offers := NewOfferService(
		cfg,
		&fakePropertyRepo{s: store},
		&fakeOfferRepo{s: store},
		&fakeCounterOfferRepo{s: store},
		waitlist,
		notifier,
	)

	env := &testEnv{
		store:      store,
		cfg:        cfg,
		hub:        hub,
		notifier:   notifier,
		waitlist:   waitlist,
		offers:     offers,
		sellerID:   uuid.New(),
		buyerID:    uuid.New(),
		propertyID: uuid.New(),
	}

	store.users[env.sellerID] = &models.User{
		ID:        env.sellerID,
		Email:     "seller@example.com",
		Phone:     "+15550100001",
		FirstName: "Sam",
		LastName:  "Seller",
	}
	store.users[env.buyerID] = &models.User{
		ID:        env.buyerID,
		Email:     "buyer@example.com",
		FirstName: "Bea",
		LastName:  "Buyer",
	}
	store.props[env.propertyID] = &models.Property{
		ID:             env.propertyID,
		OwnerID:        env.sellerID,
		AskingPrice:    32500000,
		MarketPrice:    35000000,
		ExactAddress:   "1418 W Augusta Blvd, Chicago, IL 60642",
		PublicLocation: "West Town, Chicago",
		CreatedAt:      time.Now(),
	}
	return env
}

// grantAccess walks the buyer through the gate: request plus owner
// acceptance.
func (env *testEnv) grantAccess(t *testing.T, ctx context.Context) *models.WaitlistRequest {
	t.Helper()
	wr, err := env.waitlist.RequestAccess(ctx, env.buyerID, waitlistReq(env.propertyID))
	require.NoError(t, err)
	accepted, err := env.waitlist.Decide(ctx, wr.ID, env.sellerID, WaitlistDecisionAccept)
	require.NoError(t, err)
	return accepted
}
