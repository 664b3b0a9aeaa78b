package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/dwelly/negotiation-service/internal/models"
)

// CounterOfferRepository is read-only: counter rows are only ever
// written inside OfferRepository.TransitionAtomic.
type CounterOfferRepository interface {
	ListByOffer(ctx context.Context, offerID uuid.UUID) ([]*models.CounterOffer, error)
	GetLatestByOffer(ctx context.Context, offerID uuid.UUID) (*models.CounterOffer, error)
}

type counterOfferRepo struct {
	db DB
}

func NewCounterOfferRepository(db DB) CounterOfferRepository {
	return &counterOfferRepo{db: db}
}

func baseSelectCounter() string {
	return `
        SELECT id, offer_id, amount, from_seller, created_at
        FROM counter_offers
    `
}

func scanCounter(row pgx.Row) (*models.CounterOffer, error) {
	var c models.CounterOffer
	err := row.Scan(&c.ID, &c.OfferID, &c.Amount, &c.FromSeller, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByOffer returns the chain oldest-first; the last element is the
// effective amount of the negotiation.
func (r *counterOfferRepo) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]*models.CounterOffer, error) {
	rows, err := r.db.Query(ctx, baseSelectCounter()+`
        WHERE offer_id=$1 ORDER BY created_at, id
    `, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CounterOffer
	for rows.Next() {
		c, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *counterOfferRepo) GetLatestByOffer(ctx context.Context, offerID uuid.UUID) (*models.CounterOffer, error) {
	row := r.db.QueryRow(ctx, baseSelectCounter()+`
        WHERE offer_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1
    `, offerID)
	c, err := scanCounter(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}
