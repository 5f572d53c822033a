package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-orders/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `item_number, name, size, category, supplier, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(&p.ItemNumber, &p.Name, &p.Size, &p.Category, &p.Supplier, &p.CreatedAt, &p.UpdatedAt)
}

// Search returns products matching the filter, ordered by name.
func (r *productRepository) Search(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR name ILIKE $1 ESCAPE '\' OR item_number ILIKE $1 ESCAPE '\')
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR supplier = $3)
		ORDER BY name, item_number
		LIMIT $4 OFFSET $5
	`

	rows, err := r.pool.Query(ctx, query, containsPattern(filter.Query), filter.Category, filter.Supplier, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("query", filter.Query).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// likeEscaper escapes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a search term into a substring LIKE pattern. A blank
// term stays blank and disables the filter.
func containsPattern(term string) string {
	if term == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(term) + "%"
}

// GetByItemNumber retrieves a single product by its item number.
func (r *productRepository) GetByItemNumber(ctx context.Context, itemNumber string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE item_number = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, itemNumber), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("item_number", itemNumber).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("item_number", itemNumber).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Facets lists the distinct categories and suppliers. Both lists are read
// concurrently.
func (r *productRepository) Facets(ctx context.Context) (*model.CatalogFacets, error) {
	var categories, suppliers []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := r.distinct(gctx, `SELECT DISTINCT category FROM products ORDER BY category`)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		categories = values
		return nil
	})
	g.Go(func() error {
		values, err := r.distinct(gctx, `SELECT DISTINCT supplier FROM products ORDER BY supplier`)
		if err != nil {
			return fmt.Errorf("failed to list suppliers: %w", err)
		}
		suppliers = values
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.CatalogFacets{Categories: categories, Suppliers: suppliers}, nil
}

func (r *productRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query distinct values")
		return nil, err
	}

	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to collect distinct values")
		return nil, err
	}

	return values, nil
}

// UpsertBatch inserts or updates products keyed by item number.
// The batch runs in a single transaction, so it either lands whole or not at all.
func (r *productRepository) UpsertBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (item_number, name, size, category, supplier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (item_number) DO UPDATE
		SET name = EXCLUDED.name,
		    size = EXCLUDED.size,
		    category = EXCLUDED.category,
		    supplier = EXCLUDED.supplier,
		    updated_at = NOW()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query, p.ItemNumber, p.Name, p.Size, p.Category, p.Supplier)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range products {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			r.logger.Error().
				Err(err).
				Str("item_number", products[i].ItemNumber).
				Msg("failed to upsert product")
			return fmt.Errorf("failed to upsert product %s: %w", products[i].ItemNumber, err)
		}
	}

	if err := results.Close(); err != nil {
		r.logger.Error().Err(err).Msg("failed to close batch results")
		return fmt.Errorf("failed to upsert products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int("count", len(products)).Msg("failed to commit product batch")
		return fmt.Errorf("failed to commit product batch: %w", err)
	}

	r.logger.Debug().Int("count", len(products)).Msg("product batch upserted")

	return nil
}
