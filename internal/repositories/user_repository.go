package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/dwelly/negotiation-service/internal/models"
)

// UserRepository is a read-only view over the identity service's users
// table. The engine never writes it; it only needs contact details for
// the notification dispatcher.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userRepo struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, email, phone, first_name, last_name
        FROM users WHERE id=$1
    `, id)

	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.FirstName, &u.LastName)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
