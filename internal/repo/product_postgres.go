package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

type PostgresProductRepository struct {
	db *sql.DB
}

var _ ProductRepository = (*PostgresProductRepository)(nil)

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `barcode, name, brand, category, ingredients_raw, ingredients, nutrition,
	flagged_additives, image_url, source, status, is_verified, user_contributed,
	search_attempts, last_searched, created_at, updated_at`

func (r *PostgresProductRepository) GetByBarcode(barcode string) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, barcode))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) Create(p models.Product) (models.Product, error) {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ingredients, nutrition, additives, err := marshalStructured(p)
	if err != nil {
		return models.Product{}, err
	}
	_, err = r.db.ExecContext(ctx, query,
		p.Barcode, p.Name, p.Brand, p.Category, p.IngredientsRaw, ingredients, nutrition,
		additives, p.ImageURL, p.Source, p.Status, p.IsVerified, p.UserContributed,
		p.SearchAttempts, nullTime(p.LastSearched), p.CreatedAt, p.UpdatedAt)
	return p, err
}

func (r *PostgresProductRepository) Update(p models.Product) (models.Product, error) {
	query := `UPDATE products SET name = $2, brand = $3, category = $4, ingredients_raw = $5,
		ingredients = $6, nutrition = $7, flagged_additives = $8, image_url = $9, source = $10,
		status = $11, is_verified = $12, user_contributed = $13, search_attempts = $14,
		last_searched = $15, updated_at = $16
		WHERE barcode = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ingredients, nutrition, additives, err := marshalStructured(p)
	if err != nil {
		return models.Product{}, err
	}
	res, err := r.db.ExecContext(ctx, query,
		p.Barcode, p.Name, p.Brand, p.Category, p.IngredientsRaw,
		ingredients, nutrition, additives, p.ImageURL, p.Source,
		p.Status, p.IsVerified, p.UserContributed, p.SearchAttempts,
		nullTime(p.LastSearched), p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *PostgresProductRepository) RecordMiss(barcode string, at time.Time) (models.Product, error) {
	query := `INSERT INTO products (barcode, source, status, search_attempts, last_searched, created_at, updated_at)
		VALUES ($1, '', 'not_found', 1, $2, $2, $2)
		ON CONFLICT (barcode) DO UPDATE
		SET search_attempts = products.search_attempts + 1,
		    last_searched = EXCLUDED.last_searched,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return scanProduct(r.db.QueryRowContext(ctx, query, barcode, at))
}

func (r *PostgresProductRepository) SoftDelete(barcode string, at time.Time) error {
	query := `UPDATE products SET status = 'deleted', updated_at = $2 WHERE barcode = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, barcode, at)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func marshalStructured(p models.Product) (ingredients, nutrition, additives []byte, err error) {
	if ingredients, err = json.Marshal(p.Ingredients); err != nil {
		return nil, nil, nil, err
	}
	if nutrition, err = json.Marshal(p.Nutrition); err != nil {
		return nil, nil, nil, err
	}
	if additives, err = json.Marshal(p.FlaggedAdditives); err != nil {
		return nil, nil, nil, err
	}
	return ingredients, nutrition, additives, nil
}

func scanProduct(row *sql.Row) (models.Product, error) {
	var p models.Product
	var ingredients, nutrition, additives []byte
	var lastSearched sql.NullTime

	err := row.Scan(&p.Barcode, &p.Name, &p.Brand, &p.Category, &p.IngredientsRaw,
		&ingredients, &nutrition, &additives, &p.ImageURL, &p.Source, &p.Status,
		&p.IsVerified, &p.UserContributed, &p.SearchAttempts, &lastSearched,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	if lastSearched.Valid {
		p.LastSearched = lastSearched.Time
	}
	if err := json.Unmarshal(ingredients, &p.Ingredients); err != nil {
		return models.Product{}, err
	}
	if err := json.Unmarshal(nutrition, &p.Nutrition); err != nil {
		return models.Product{}, err
	}
	if err := json.Unmarshal(additives, &p.FlaggedAdditives); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
