// Package store holds the Postgres-backed catalog and order history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/database"
	"github.com/safar/agrocart/internal/models"
)

const productColumns = `id, name, description, price, category, stock_quantity, image,
	seller_id, seller_name, seller_email, discount, is_public, status, rating, reviews,
	created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.StockQuantity,
		&product.Image,
		&product.Seller.ID,
		&product.Seller.Name,
		&product.Seller.Email,
		&product.Discount,
		&product.IsPublic,
		&product.Status,
		&product.Rating,
		&product.Reviews,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ProductStore is the catalog on Postgres.
type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) List(ctx context.Context, opts catalog.ListOptions) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE status <> $1
		  AND ($2::text = '' OR category = $2)
		  AND ($3::text = '' OR name ILIKE $3 ESCAPE '\' OR description ILIKE $3 ESCAPE '\')
		  AND (NOT $4::boolean OR (is_public AND status = $5))
		ORDER BY created_at DESC, id`

	search := ""
	if opts.Search != "" {
		search = "%" + escapeLike(opts.Search) + "%"
	}

	rows, err := s.db.QueryContext(ctx, query,
		models.ProductStatusDeleted, opts.Category, search, opts.PublishedOnly, models.ProductStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *ProductStore) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	p = withDefaults(p)
	if err := catalog.Validate(p); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	product, err := scanProduct(s.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.StockQuantity, p.Image,
		p.Seller.ID, p.Seller.Name, p.Seller.Email, p.Discount, p.IsPublic, p.Status,
		p.Rating, p.Reviews))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, catalog.ValidationErrors{"id": "Product ID already exists"}
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// Update locks the row, merges the patch and writes it back guarded by the
// row version. Lock contention and serialization failures are retried.
func (s *ProductStore) Update(ctx context.Context, id string, patch catalog.ProductPatch) (*models.Product, error) {
	var updated *models.Product

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := lockProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.Version != nil && *patch.Version != current.Version {
			return catalog.ErrVersionConflict
		}

		next := *current
		patch.Apply(&next)
		next.ID = id
		if err := catalog.Validate(next); err != nil {
			return err
		}

		updated, err = scanProduct(tx.QueryRowContext(ctx,
			`UPDATE products
			 SET name = $1, description = $2, price = $3, category = $4, stock_quantity = $5,
			     image = $6, seller_id = $7, seller_name = $8, seller_email = $9, discount = $10,
			     is_public = $11, status = $12, version = version + 1, updated_at = NOW()
			 WHERE id = $13 AND version = $14
			 RETURNING `+productColumns,
			next.Name, next.Description, next.Price, next.Category, next.StockQuantity,
			next.Image, next.Seller.ID, next.Seller.Name, next.Seller.Email, next.Discount,
			next.IsPublic, next.Status, id, current.Version))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %w", catalog.ErrVersionConflict, database.ErrOptimisticLockFailed)
			}
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET status = $1, is_public = FALSE, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND status <> $1`,
		models.ProductStatusDeleted, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductStore) Stock(ctx context.Context, id string) (int, error) {
	var stock int
	var status string

	err := s.db.QueryRowContext(ctx,
		`SELECT stock_quantity, status FROM products WHERE id = $1`,
		id).Scan(&stock, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, catalog.ErrProductNotFound
		}
		return 0, fmt.Errorf("get stock: %w", err)
	}

	if status == models.ProductStatusDeleted {
		return 0, nil
	}
	return stock, nil
}

// DecrementStock takes every line out of stock in one transaction. Rows are
// updated in id order so concurrent orders do not deadlock.
func (s *ProductStore) DecrementStock(ctx context.Context, lines []catalog.StockLine) error {
	need := make(map[string]int, len(lines))
	for _, l := range lines {
		need[l.ProductID] += l.Quantity
	}
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := decrementStock(ctx, tx, id, need[id]); err != nil {
				return err
			}
		}
		return nil
	})
}

func decrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $1,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock_quantity >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)",
			productID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return catalog.ErrProductNotFound
		}
		return catalog.ErrInsufficientStock
	}

	return nil
}

func lockProduct(ctx context.Context, tx *sql.Tx, id string) (*models.Product, error) {
	product, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = $1
		 FOR UPDATE NOWAIT`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product (nowait): %w", err)
	}
	return product, nil
}

func withDefaults(p models.Product) models.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.ProductStatusDraft
	}
	return p
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
