package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dwelly/negotiation-service/internal/feed"
	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/repositories"
	"github.com/dwelly/negotiation-service/internal/utils"
)

// Notifier owns the user-facing notification log and the change-feed
// fan-out. Notification rows themselves are inserted by the waitlist
// and offer repositories inside the transition transaction; Notifier
// builds them and announces the committed result on the feed.
type Notifier struct {
	notifRepo repositories.NotificationRepository
	hub       feedPublisher
}

// feedPublisher is the slice of feed.Hub the notifier needs.
type feedPublisher interface {
	Publish(e feed.Event)
}

func NewNotifier(notifRepo repositories.NotificationRepository, hub feedPublisher) *Notifier {
	return &Notifier{notifRepo: notifRepo, hub: hub}
}

// ---------------------------------------------------------------
// Notification construction
// ---------------------------------------------------------------

func newNotification(
	recipient uuid.UUID,
	typ models.NotificationType,
	title, message string,
	props map[string]string,
) *models.Notification {
	return &models.Notification{
		ID:         uuid.New(),
		UserID:     recipient,
		Title:      title,
		Message:    message,
		Type:       typ,
		Properties: props,
	}
}

func waitlistProps(wr *models.WaitlistRequest) map[string]string {
	return map[string]string{
		"property_id": wr.PropertyID.String(),
		"request_id":  wr.ID.String(),
	}
}

func offerProps(o *models.Offer, amount int64) map[string]string {
	p := map[string]string{
		"property_id": o.PropertyID.String(),
		"offer_id":    o.ID.String(),
	}
	if amount > 0 {
		p["amount"] = fmt.Sprintf("%d", amount)
	}
	return p
}

// ---------------------------------------------------------------
// Feed fan-out (post-commit)
// ---------------------------------------------------------------

// AnnounceWaitlist publishes the committed request row to both parties
// and the notification to its recipient.
func (nt *Notifier) AnnounceWaitlist(wr *models.WaitlistRequest, ownerID uuid.UUID, op feed.Op, n *models.Notification) {
	for _, recipient := range []uuid.UUID{wr.UserID, ownerID} {
		nt.hub.Publish(feed.Event{
			Table:     feed.TableWaitlistRequests,
			Op:        op,
			RowID:     wr.ID.String(),
			Recipient: recipient,
			Payload:   wr,
		})
	}
	nt.announceNotification(n)
}

// AnnounceOffer publishes the committed offer row (and the appended
// counter, if any) to both parties, plus the notification.
func (nt *Notifier) AnnounceOffer(o *models.Offer, counter *models.CounterOffer, op feed.Op, n *models.Notification) {
	parties := []uuid.UUID{o.UserID, o.SellerID}
	for _, recipient := range parties {
		nt.hub.Publish(feed.Event{
			Table:     feed.TableOffers,
			Op:        op,
			RowID:     o.ID.String(),
			Recipient: recipient,
			Payload:   o,
		})
		if counter != nil {
			nt.hub.Publish(feed.Event{
				Table:     feed.TableCounterOffers,
				Op:        feed.OpInsert,
				RowID:     counter.ID.String(),
				Recipient: recipient,
				Payload:   counter,
			})
		}
	}
	nt.announceNotification(n)
}

func (nt *Notifier) announceNotification(n *models.Notification) {
	if n == nil {
		return
	}
	nt.hub.Publish(feed.Event{
		Table:     feed.TableNotifications,
		Op:        feed.OpInsert,
		RowID:     n.ID.String(),
		Recipient: n.UserID,
		Payload:   n,
	})
}

// ---------------------------------------------------------------
// User-facing notification log
// ---------------------------------------------------------------

const notificationPageSize = 100

func (nt *Notifier) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*models.Notification, error) {
	return nt.notifRepo.ListByUser(ctx, userID, unreadOnly, notificationPageSize)
}

func (nt *Notifier) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := nt.notifRepo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return utils.ErrNotFound
	}
	nt.hub.Publish(feed.Event{
		Table:     feed.TableNotifications,
		Op:        feed.OpUpdate,
		RowID:     id.String(),
		Recipient: userID,
	})
	return nil
}

func (nt *Notifier) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := nt.notifRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	// Empty RowID: the whole log changed at once; other open sessions
	// re-fetch the list instead of patching row by row.
	nt.hub.Publish(feed.Event{
		Table:     feed.TableNotifications,
		Op:        feed.OpUpdate,
		Recipient: userID,
	})
	return nil
}
