package service

import (
	"context"
	"fmt"

	"clinic-orders/internal/cache"
	"clinic-orders/internal/model"
	"clinic-orders/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 100
)

// Importer runs a catalogue import.
type Importer interface {
	Run(ctx context.Context) (*model.ImportResult, error)
}

// catalogService implements CatalogService.
type catalogService struct {
	productRepo repository.ProductRepository
	cache       cache.Cache
	importer    Importer
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	productRepo repository.ProductRepository,
	c cache.Cache,
	importer Importer,
	logger zerolog.Logger,
) CatalogService {
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &catalogService{
		productRepo: productRepo,
		cache:       c,
		importer:    importer,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// Search returns products matching the filter, serving repeats from the cache.
func (s *catalogService) Search(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		filter.Limit = maxSearchLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	key := fmt.Sprintf("search:%q:%q:%q:%d:%d", filter.Query, filter.Category, filter.Supplier, filter.Limit, filter.Offset)

	var products []model.Product
	if s.cache.Get(ctx, key, &products) {
		return products, nil
	}

	products, err := s.productRepo.Search(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("query", filter.Query).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	s.cache.Set(ctx, key, products)

	return products, nil
}

func (s *catalogService) Facets(ctx context.Context) (*model.CatalogFacets, error) {
	var facets model.CatalogFacets
	if s.cache.Get(ctx, "facets", &facets) {
		return &facets, nil
	}

	result, err := s.productRepo.Facets(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog facets")
		return nil, fmt.Errorf("failed to load catalog facets: %w", err)
	}

	s.cache.Set(ctx, "facets", result)

	return result, nil
}

// Import reloads the catalogue from its source. Managers only.
func (s *catalogService) Import(ctx context.Context, identity model.Identity) (*model.ImportResult, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", identity.UserID).Msg("catalog import requested")

	return s.importer.Run(ctx)
}
