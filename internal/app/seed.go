package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/repositories"
	"github.com/dwelly/negotiation-service/internal/utils"
)

// Fixed ids so repeated seeding is a no-op and dev clients can hardcode
// logins against them.
var (
	seedSellerID   = uuid.MustParse("7f7f2f1e-0000-4000-8000-000000000001")
	seedBuyerID    = uuid.MustParse("7f7f2f1e-0000-4000-8000-000000000002")
	seedPropertyID = uuid.MustParse("7f7f2f1e-0000-4000-8000-000000000101")
)

// SeedDemoData inserts a seller, a buyer and one listed property for
// local development. Guarded by SEED_DEMO_DATA; never enabled in
// production environments.
func SeedDemoData(ctx context.Context, db *pgxpool.Pool) error {
	// Users belong to the identity service; seed them directly since
	// this engine only ever reads the table.
	_, err := db.Exec(ctx, `
        INSERT INTO users (id, email, phone, first_name, last_name)
        VALUES
            ($1, 'seller@example.com', '+15550100001', 'Sam', 'Seller'),
            ($2, 'buyer@example.com',  '+15550100002', 'Bea', 'Buyer')
        ON CONFLICT (id) DO NOTHING
    `, seedSellerID, seedBuyerID)
	if err != nil {
		return err
	}

	propRepo := repositories.NewPropertyRepository(db)
	existing, err := propRepo.GetByID(ctx, seedPropertyID)
	if err != nil {
		return err
	}
	if existing == nil {
		reward := int64(250000)
		err = propRepo.Create(ctx, &models.Property{
			ID:             seedPropertyID,
			OwnerID:        seedSellerID,
			AskingPrice:    32500000,
			MarketPrice:    35000000,
			ExactAddress:   "1418 W Augusta Blvd, Chicago, IL 60642",
			PublicLocation: "West Town, Chicago",
			RewardAmount:   &reward,
		})
		if err != nil {
			return err
		}
	}

	utils.Logger.Info("Seeded demo users and property")
	return nil
}
