package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"clinic-orders/internal/cache"
	"clinic-orders/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductWriter is a mock implementation of ProductWriter.
type MockProductWriter struct {
	mock.Mock
}

func (m *MockProductWriter) UpsertBatch(ctx context.Context, products []model.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

// MockCache is a mock implementation of cache.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) bool {
	return m.Called(ctx, key, dest).Bool(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value any) {
	m.Called(ctx, key, value)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

const sampleCatalog = `10000001 Canine Kibble - 12kg
10000002 Dental Chew Treats 30ct
not a product
20000001 Rabies Vaccine 10 doses
30000001 Surgical Gloves 100pcs
40000001 Printer Paper
`

func batchOfSize(n int) any {
	return mock.MatchedBy(func(p []model.Product) bool { return len(p) == n })
}

func TestImporter_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Imports in sequential batches and invalidates the cache", func(t *testing.T) {
		writer := new(MockProductWriter)
		c := new(MockCache)

		var seen [][]string
		writer.On("UpsertBatch", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			batch := args.Get(1).([]model.Product)
			ids := make([]string, len(batch))
			for i, p := range batch {
				ids[i] = p.ItemNumber
			}
			seen = append(seen, ids)
		})
		c.On("Invalidate", ctx).Return(nil).Once()

		im := NewImporter(ImporterConfig{
			Source:    stringSource(sampleCatalog),
			Path:      "products.txt",
			Supplier:  "Acme",
			BatchSize: 2,
			Writer:    writer,
			Cache:     c,
		}, zerolog.Nop())

		result, err := im.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 5, result.Imported)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 0, result.FailedBatches)
		require.Len(t, result.SkippedLines, 1)
		assert.Equal(t, 3, result.SkippedLines[0].LineNumber)
		assert.Equal(t, [][]string{
			{"10000001", "10000002"},
			{"20000001", "30000001"},
			{"40000001"},
		}, seen)

		writer.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("A failed batch is counted and the run continues", func(t *testing.T) {
		writer := new(MockProductWriter)
		c := new(MockCache)

		writer.On("UpsertBatch", ctx, batchOfSize(2)).Return(errors.New("constraint violation")).Once()
		writer.On("UpsertBatch", ctx, batchOfSize(2)).Return(nil).Once()
		writer.On("UpsertBatch", ctx, batchOfSize(1)).Return(nil).Once()
		c.On("Invalidate", ctx).Return(errors.New("redis down")).Once()

		im := NewImporter(ImporterConfig{
			Source:    stringSource(sampleCatalog),
			BatchSize: 2,
			Writer:    writer,
			Cache:     c,
		}, zerolog.Nop())

		result, err := im.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Imported)
		assert.Equal(t, 1, result.FailedBatches)
		assert.Equal(t, 2, result.FailedRecords)

		writer.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("Nothing imported leaves the cache alone", func(t *testing.T) {
		writer := new(MockProductWriter)
		c := new(MockCache)

		im := NewImporter(ImporterConfig{
			Source: stringSource("only junk\n\n"),
			Writer: writer,
			Cache:  c,
		}, zerolog.Nop())

		result, err := im.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Imported)
		assert.Equal(t, 1, result.Skipped)
		writer.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
		c.AssertNotCalled(t, "Invalidate", mock.Anything)
	})

	t.Run("Source failure", func(t *testing.T) {
		im := NewImporter(ImporterConfig{
			Source: &mockSource{},
			Writer: new(MockProductWriter),
		}, zerolog.Nop())

		result, err := im.Run(ctx)
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("Overlapping runs are refused", func(t *testing.T) {
		locker := cache.NewLocalLocker()
		release, err := locker.Acquire(ctx, importLockKey, importLockTTL)
		require.NoError(t, err)
		defer release()

		im := NewImporter(ImporterConfig{
			Source: stringSource(sampleCatalog),
			Writer: new(MockProductWriter),
			Locker: locker,
		}, zerolog.Nop())

		result, err := im.Run(ctx)
		assert.ErrorIs(t, err, model.ErrImportInProgress)
		assert.Nil(t, result)
	})

	t.Run("Lock is released after a run", func(t *testing.T) {
		locker := cache.NewLocalLocker()
		writer := new(MockProductWriter)
		writer.On("UpsertBatch", ctx, mock.Anything).Return(nil)

		im := NewImporter(ImporterConfig{
			Source: &mockSource{openFunc: func(context.Context, string) (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(sampleCatalog)), nil
			}},
			Writer: writer,
			Locker: locker,
		}, zerolog.Nop())

		_, err := im.Run(ctx)
		require.NoError(t, err)
		_, err = im.Run(ctx)
		require.NoError(t, err)
	})
}
