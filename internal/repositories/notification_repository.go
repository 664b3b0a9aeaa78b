package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/dwelly/negotiation-service/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error

	// Outbox side: rows whose delivery is due, and attempt bookkeeping.
	ListDueForDispatch(ctx context.Context, now time.Time, limit int) ([]*models.Notification, error)
	MarkDispatched(ctx context.Context, id uuid.UUID) error
	MarkDispatchFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttempt time.Time, terminal bool) error
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepository(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func baseSelectNotification() string {
	return `
        SELECT
            id, user_id, title, message, type, properties, read,
            dispatch_status, attempts, next_attempt_at, dispatched_at,
            created_at
        FROM notifications
    `
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	var props pgtype.JSONB
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Message,
		&n.Type,
		&props,
		&n.Read,
		&n.DispatchStatus,
		&n.Attempts,
		&n.NextAttemptAt,
		&n.DispatchedAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if props.Status == pgtype.Present {
		if err := props.AssignTo(&n.Properties); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// insertNotification writes one notification row on the given DB, which
// may be a transaction held by another repository. Every state
// transition in the engine goes through here inside the same tx as the
// row it announces.
func insertNotification(ctx context.Context, db DB, n *models.Notification) error {
	var props pgtype.JSONB
	if err := props.Set(n.Properties); err != nil {
		return err
	}
	_, err := db.Exec(ctx, `
        INSERT INTO notifications (
            id, user_id, title, message, type, properties, read,
            dispatch_status, attempts, created_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,FALSE,'PENDING',0,NOW()
        )
    `,
		n.ID, n.UserID, n.Title, n.Message, n.Type, props,
	)
	return err
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return insertNotification(ctx, r.db, n)
}

func (r *notificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	row := r.db.QueryRow(ctx, baseSelectNotification()+" WHERE id=$1", id)
	n, err := scanNotification(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *notificationRepo) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]*models.Notification, error) {
	q := baseSelectNotification() + " WHERE user_id=$1"
	if unreadOnly {
		q += " AND read=FALSE"
	}
	q += " ORDER BY created_at DESC LIMIT $2"

	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag; the WHERE on user_id means a caller can
// only ever touch their own rows. Returns false when nothing matched.
func (r *notificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2
    `, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE notifications SET read=TRUE WHERE user_id=$1 AND read=FALSE
    `, userID)
	return err
}

func (r *notificationRepo) ListDueForDispatch(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*models.Notification, error) {
	rows, err := r.db.Query(ctx, baseSelectNotification()+`
        WHERE dispatch_status='PENDING'
          AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
        ORDER BY created_at
        LIMIT $2
    `, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepo) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE notifications
        SET dispatch_status='SENT', dispatched_at=NOW()
        WHERE id=$1
    `, id)
	return err
}

func (r *notificationRepo) MarkDispatchFailed(
	ctx context.Context,
	id uuid.UUID,
	attempts int,
	nextAttempt time.Time,
	terminal bool,
) error {
	status := models.DispatchStatusPending
	if terminal {
		status = models.DispatchStatusFailed
	}
	_, err := r.db.Exec(ctx, `
        UPDATE notifications
        SET dispatch_status=$1, attempts=$2, next_attempt_at=$3
        WHERE id=$4
    `, status, attempts, nextAttempt, id)
	return err
}
