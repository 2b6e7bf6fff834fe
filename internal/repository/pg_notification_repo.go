package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/event-notifications/internal/domain"
)

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPgNotificationRepository returns a NotificationRepository backed by PostgreSQL.
func NewPgNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

func (r *pgNotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	events, err := json.Marshal(n.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications
			(id, client_id, resource_id, events, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.ClientID, n.ResourceID, events, n.Status, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_id, resource_id, events, status,
		       error_code, error_description, created_at, updated_at
		FROM notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return n, err
}

func (r *pgNotificationRepository) FetchOpen(ctx context.Context, clientID string, limit int) ([]*domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, resource_id, events, status,
		       error_code, error_description, created_at, updated_at
		FROM notifications
		WHERE client_id = $1 AND status = 'OPEN'
		ORDER BY created_at ASC
		LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch open notifications: %w", err)
	}
	defer rows.Close()

	var result []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *pgNotificationRepository) MarkAck(ctx context.Context, clientID, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = 'ACK', updated_at = NOW()
		WHERE id = $1 AND client_id = $2 AND status = 'OPEN'`, id, clientID)
	if err != nil {
		return false, fmt.Errorf("mark ack: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgNotificationRepository) MarkError(ctx context.Context, clientID, id, code, description string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = 'ERR', error_code = $1, error_description = $2, updated_at = NOW()
		WHERE id = $3 AND client_id = $4 AND status = 'OPEN'`, code, description, id, clientID)
	if err != nil {
		return false, fmt.Errorf("mark error: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanNotification reads a single notification row from any pgx row type.
func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var events []byte
	err := row.Scan(
		&n.ID, &n.ClientID, &n.ResourceID, &events, &n.Status,
		&n.ErrorCode, &n.ErrorDescription, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(events, &n.Events); err != nil {
		return nil, fmt.Errorf("unmarshal events for %s: %w", n.ID, err)
	}
	return &n, nil
}
