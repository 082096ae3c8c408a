package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/google/uuid"
)

const orderColumns = `id, customer_name, customer_email, customer_phone, items, pickup_date,
	pickup_time, notes, status, user_id, language, delivery_method, delivery_address,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// CreateOrder inserts order, assigning a random id and timestamps when they
// are missing.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	if order.Status == "" {
		order.Status = models.StatusPending
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone, string(items),
		order.PickupDate, order.PickupTime, order.Notes, string(order.Status), order.UserID,
		string(order.Language), string(order.DeliveryMethod), order.DeliveryAddress,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return order, err
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// UpdateOrderStatus is a last-write-wins single row update.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.Status) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, string(status))
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return order, err
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order      models.Order
		items      []byte
		pickupDate time.Time
		status     string
		userID     sql.NullString
		language   string
		method     string
	)

	err := row.Scan(
		&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone, &items,
		&pickupDate, &order.PickupTime, &order.Notes, &status, &userID, &language, &method,
		&order.DeliveryAddress, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items of order %s: %w", order.ID, err)
	}
	order.PickupDate = pickupDate.Format("2006-01-02")
	order.Status = models.Status(status)
	order.Language = models.ParseLanguage(language)
	order.DeliveryMethod = models.DeliveryMethod(method)
	if userID.Valid {
		order.UserID = &userID.String
	}
	return &order, nil
}
