package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/utils"
)

type OfferRepository interface {
	// CreateWithNotification inserts the offer and the seller-facing
	// notification in one transaction. A second live offer on the same
	// (property, user) pair surfaces as utils.ErrConflict.
	CreateWithNotification(ctx context.Context, o *models.Offer, n *models.Notification) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	GetLiveByPropertyAndUser(ctx context.Context, propertyID, userID uuid.UUID) (*models.Offer, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Offer, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error)

	// TransitionAtomic is the single write path for every negotiation
	// state change. Inside one transaction it locks the offer row,
	// checks the caller's expected row_version, moves the status,
	// appends the counter-offer when the action is a counter, and
	// writes the counter-party notification. A version mismatch means
	// the offer moved under the caller; the latest row comes back with
	// utils.ErrRowVersionConflict so the service can re-evaluate.
	TransitionAtomic(
		ctx context.Context,
		offerID uuid.UUID,
		expectedVersion int64,
		newStatus models.OfferStatusType,
		counter *models.CounterOffer,
		n *models.Notification,
	) (*models.Offer, error)
}

type offerRepo struct {
	db DB
}

func NewOfferRepository(db DB) OfferRepository {
	return &offerRepo{db: db}
}

func baseSelectOffer() string {
	return `
        SELECT
            id, property_id, user_id, seller_id, offer_amount,
            is_interested, proof_of_funds_url, status,
            row_version, created_at, updated_at
        FROM property_offers
    `
}

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(
		&o.ID,
		&o.PropertyID,
		&o.UserID,
		&o.SellerID,
		&o.OfferAmount,
		&o.IsInterested,
		&o.ProofOfFundsURL,
		&o.Status,
		&o.RowVersion,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepo) CreateWithNotification(
	ctx context.Context,
	o *models.Offer,
	n *models.Notification,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	// Partial unique index on (property_id, user_id) for rows in
	// PENDING/COUNTERED keeps a buyer to one live negotiation per
	// property; terminal offers don't block a fresh one.
	_, err = tx.Exec(ctx, `
        INSERT INTO property_offers (
            id, property_id, user_id, seller_id, offer_amount,
            is_interested, proof_of_funds_url, status,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,1,NOW(),NOW()
        )
    `,
		o.ID, o.PropertyID, o.UserID, o.SellerID, o.OfferAmount,
		o.IsInterested, o.ProofOfFundsURL, o.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = utils.ErrConflict
		}
		return err
	}

	err = insertNotification(ctx, tx, n)
	return err
}

func (r *offerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	row := r.db.QueryRow(ctx, baseSelectOffer()+" WHERE id=$1", id)
	o, err := scanOffer(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *offerRepo) GetLiveByPropertyAndUser(
	ctx context.Context,
	propertyID, userID uuid.UUID,
) (*models.Offer, error) {
	row := r.db.QueryRow(ctx, baseSelectOffer()+`
        WHERE property_id=$1 AND user_id=$2
          AND status IN ('PENDING','COUNTERED')
        LIMIT 1
    `, propertyID, userID)
	o, err := scanOffer(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *offerRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.db.Query(ctx, baseSelectOffer()+`
        WHERE property_id=$1 ORDER BY created_at DESC
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *offerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.db.Query(ctx, baseSelectOffer()+`
        WHERE user_id=$1 ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func collectOffers(rows pgx.Rows) ([]*models.Offer, error) {
	var out []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *offerRepo) TransitionAtomic(
	ctx context.Context,
	offerID uuid.UUID,
	expectedVersion int64,
	newStatus models.OfferStatusType,
	counter *models.CounterOffer,
	n *models.Notification,
) (*models.Offer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectOffer()+" WHERE id=$1 FOR UPDATE", offerID)
	o, err := scanOffer(row)
	if err != nil {
		return nil, err
	}
	if o.RowVersion != expectedVersion {
		err = utils.ErrRowVersionConflict
		return o, err
	}
	if o.Terminal() {
		err = utils.ErrInvalidTransition
		return o, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE property_offers
        SET status=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, newStatus, offerID)
	if err != nil {
		return nil, err
	}

	if counter != nil {
		_, err = tx.Exec(ctx, `
            INSERT INTO counter_offers (id, offer_id, amount, from_seller, created_at)
            VALUES ($1,$2,$3,$4,NOW())
        `, counter.ID, counter.OfferID, counter.Amount, counter.FromSeller)
		if err != nil {
			return nil, err
		}
	}

	if err = insertNotification(ctx, tx, n); err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectOffer()+" WHERE id=$1", offerID)
	return scanOffer(newRow)
}
