package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CreateUser inserts the user, an empty profile and the customer role in one
// transaction.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, displayName string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, created_at) VALUES ($1, $2, $3)`,
		user.ID, displayName, user.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
		user.ID, string(models.RoleCustomer)); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	return user, tx.Commit()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = LOWER($1)`,
		strings.TrimSpace(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func (s *Store) Roles(ctx context.Context, userID string) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, models.Role(role))
	}
	return roles, rows.Err()
}

func (s *Store) HasRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return exists, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, created_at FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.DisplayName, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID, displayName string) (*models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, display_name) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING display_name, created_at`, userID, displayName).Scan(&p.DisplayName, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &p, nil
}
