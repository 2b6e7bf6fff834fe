package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/event-notifications/internal/domain"
)

type pgSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriptionRepository returns a SubscriptionRepository backed by PostgreSQL.
func NewPgSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &pgSubscriptionRepository{pool: pool}
}

func (r *pgSubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, client_id, callback_url, event_types, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.ClientID, s.CallbackURL, s.EventTypes, s.CreatedAt,
	)
	if err != nil {
		// One subscription per client, enforced by the unique index.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrSubscriptionExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *pgSubscriptionRepository) List(ctx context.Context) ([]*domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, callback_url, event_types, created_at
		FROM subscriptions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(&s.ID, &s.ClientID, &s.CallbackURL, &s.EventTypes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

func (r *pgSubscriptionRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_id, callback_url, event_types, created_at
		FROM subscriptions WHERE client_id = $1`, clientID)

	var s domain.Subscription
	err := row.Scan(&s.ID, &s.ClientID, &s.CallbackURL, &s.EventTypes, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}
