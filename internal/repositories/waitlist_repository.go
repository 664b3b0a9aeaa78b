package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/utils"
)

type WaitlistRepository interface {
	// CreateWithNotification inserts the request and the owner-facing
	// notification in one transaction. A duplicate (property, user)
	// pair surfaces as utils.ErrConflict.
	CreateWithNotification(ctx context.Context, wr *models.WaitlistRequest, n *models.Notification) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.WaitlistRequest, error)
	GetByPropertyAndUser(ctx context.Context, propertyID, userID uuid.UUID) (*models.WaitlistRequest, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.WaitlistRequest, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.WaitlistRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WaitlistRequest, error)

	// DecideAtomic moves a PENDING request to ACCEPTED or DECLINED and
	// writes the buyer-facing notification, all in one transaction
	// guarded by FOR UPDATE plus a row_version check.
	DecideAtomic(
		ctx context.Context,
		requestID uuid.UUID,
		expectedVersion int64,
		newStatus models.WaitlistStatusType,
		n *models.Notification,
	) (*models.WaitlistRequest, error)
}

type waitlistRepo struct {
	db DB
}

func NewWaitlistRepository(db DB) WaitlistRepository {
	return &waitlistRepo{db: db}
}

func baseSelectWaitlist() string {
	return `
        SELECT
            id, property_id, user_id, name, email, phone, status,
            row_version, created_at, updated_at
        FROM waitlist_requests
    `
}

func scanWaitlist(row pgx.Row) (*models.WaitlistRequest, error) {
	var wr models.WaitlistRequest
	err := row.Scan(
		&wr.ID,
		&wr.PropertyID,
		&wr.UserID,
		&wr.Name,
		&wr.Email,
		&wr.Phone,
		&wr.Status,
		&wr.RowVersion,
		&wr.CreatedAt,
		&wr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wr, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *waitlistRepo) CreateWithNotification(
	ctx context.Context,
	wr *models.WaitlistRequest,
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

	// The partial unique index on (property_id, user_id) for
	// non-declined rows is the authority on duplicates; two concurrent
	// submissions race down to exactly one insert.
	_, err = tx.Exec(ctx, `
        INSERT INTO waitlist_requests (
            id, property_id, user_id, name, email, phone, status,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,1,NOW(),NOW()
        )
    `,
		wr.ID, wr.PropertyID, wr.UserID,
		wr.Name, wr.Email, wr.Phone, wr.Status,
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

func (r *waitlistRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WaitlistRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectWaitlist()+" WHERE id=$1", id)
	wr, err := scanWaitlist(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return wr, err
}

// GetByPropertyAndUser returns the newest request for the pair. With
// re-application enabled there can be older DECLINED rows underneath.
func (r *waitlistRepo) GetByPropertyAndUser(
	ctx context.Context,
	propertyID, userID uuid.UUID,
) (*models.WaitlistRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectWaitlist()+`
        WHERE property_id=$1 AND user_id=$2
        ORDER BY created_at DESC LIMIT 1
    `, propertyID, userID)
	wr, err := scanWaitlist(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return wr, err
}

func (r *waitlistRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.WaitlistRequest, error) {
	rows, err := r.db.Query(ctx, baseSelectWaitlist()+`
        WHERE property_id=$1 ORDER BY created_at DESC
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWaitlist(rows)
}

func (r *waitlistRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.WaitlistRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT
            wr.id, wr.property_id, wr.user_id, wr.name, wr.email, wr.phone,
            wr.status, wr.row_version, wr.created_at, wr.updated_at
        FROM waitlist_requests wr
        JOIN properties p ON p.id = wr.property_id
        WHERE p.owner_id=$1
        ORDER BY wr.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWaitlist(rows)
}

func (r *waitlistRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WaitlistRequest, error) {
	rows, err := r.db.Query(ctx, baseSelectWaitlist()+`
        WHERE user_id=$1 ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWaitlist(rows)
}

func collectWaitlist(rows pgx.Rows) ([]*models.WaitlistRequest, error) {
	var out []*models.WaitlistRequest
	for rows.Next() {
		wr, err := scanWaitlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wr)
	}
	return out, rows.Err()
}

func (r *waitlistRepo) DecideAtomic(
	ctx context.Context,
	requestID uuid.UUID,
	expectedVersion int64,
	newStatus models.WaitlistStatusType,
	n *models.Notification,
) (*models.WaitlistRequest, error) {
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

	row := tx.QueryRow(ctx, baseSelectWaitlist()+" WHERE id=$1 FOR UPDATE", requestID)
	wr, err := scanWaitlist(row)
	if err != nil {
		return nil, err
	}
	if wr.RowVersion != expectedVersion {
		err = utils.ErrRowVersionConflict
		return wr, err
	}
	if wr.Status != models.WaitlistStatusPending {
		err = utils.ErrInvalidTransition
		return wr, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE waitlist_requests
        SET status=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, newStatus, requestID)
	if err != nil {
		return nil, err
	}

	if err = insertNotification(ctx, tx, n); err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectWaitlist()+" WHERE id=$1", requestID)
	return scanWaitlist(newRow)
}
