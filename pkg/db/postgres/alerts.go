package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert is a persisted notification row raised against a watched address.
type Alert struct {
	ID           uuid.UUID `json:"id"`
	Address      string    `json:"address"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// AlertStore persists alerts.
type AlertStore struct {
	*Client
}

func NewAlertStore(ctx context.Context, client *Client) (*AlertStore, error) {
	s := &AlertStore{Client: client}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AlertStore) init(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY,
			address TEXT NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			acknowledged BOOLEAN NOT NULL DEFAULT false
		)
	`)
	if err != nil {
		return fmt.Errorf("create alerts: %w", err)
	}
	return nil
}

func (s *AlertStore) Insert(ctx context.Context, address, kind, message string) (*Alert, error) {
	a := &Alert{
		ID:        uuid.New(),
		Address:   address,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO alerts (id, address, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Address, a.Kind, a.Message, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

// List returns newest alerts first. When includeAcked is false only
// unacknowledged alerts are returned.
func (s *AlertStore) List(ctx context.Context, includeAcked bool, limit int) ([]Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, address, kind, message, created_at, acknowledged
		FROM alerts`
	if !includeAcked {
		query += ` WHERE NOT acknowledged`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.Address, &a.Kind, &a.Message, &a.CreatedAt, &a.Acknowledged); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Acknowledge marks an alert as handled; reports whether the alert existed.
func (s *AlertStore) Acknowledge(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE alerts SET acknowledged = true WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("acknowledge alert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
