package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.queryProducts(ctx, `
		SELECT key, name_nl, name_ro, price, unit, available
		FROM products WHERE available ORDER BY name_nl`)
}

// ProductsByKeys includes unavailable products: an order placed yesterday is
// still priced when the product has since been switched off.
func (s *Store) ProductsByKeys(ctx context.Context, keys []string) ([]models.Product, error) {
	if len(keys) == 0 {
		return []models.Product{}, nil
	}
	return s.queryProducts(ctx, `
		SELECT key, name_nl, name_ro, price, unit, available
		FROM products WHERE key = ANY($1)`, pq.Array(keys))
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var price string
		if err := rows.Scan(&p.Key, &p.NameNL, &p.NameRO, &price, &p.Unit, &p.Available); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price for product %s: %w", p.Key, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, status models.Status) (*models.WhatsAppTemplate, error) {
	t := models.WhatsAppTemplate{Status: status}
	err := s.db.QueryRowContext(ctx,
		`SELECT template FROM whatsapp_templates WHERE status = $1`, string(status)).Scan(&t.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]models.WhatsAppTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, template FROM whatsapp_templates ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	templates := []models.WhatsAppTemplate{}
	for rows.Next() {
		var t models.WhatsAppTemplate
		var status string
		if err := rows.Scan(&status, &t.Template); err != nil {
			return nil, err
		}
		t.Status = models.Status(status)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
