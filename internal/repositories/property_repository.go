package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/dwelly/negotiation-service/internal/models"
)

// PropertyRepository covers what the engine needs from listings: the
// gated read, plus Create for seeding. Listing management lives in
// another service.
type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

type propertyRepo struct {
	db DB
}

func NewPropertyRepository(db DB) PropertyRepository {
	return &propertyRepo{db: db}
}

func baseSelectProperty() string {
	return `
        SELECT
            id, owner_id, asking_price, market_price,
            exact_address, public_location, reward_amount, created_at
        FROM properties
    `
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.AskingPrice,
		&p.MarketPrice,
		&p.ExactAddress,
		&p.PublicLocation,
		&p.RewardAmount,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO properties (
            id, owner_id, asking_price, market_price,
            exact_address, public_location, reward_amount, created_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,NOW()
        )
    `,
		p.ID, p.OwnerID, p.AskingPrice, p.MarketPrice,
		p.ExactAddress, p.PublicLocation, p.RewardAmount,
	)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	row := r.db.QueryRow(ctx, baseSelectProperty()+" WHERE id=$1", id)
	p, err := scanProperty(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}
