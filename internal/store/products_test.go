// ABOUTME: Tests for the product store against real SQLite
// ABOUTME: Covers schema creation, seeding, and parameterized queries

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *ProductStore {
	t.Helper()

	s, err := NewProductStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestProductStore_Seed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM products", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	n, ok := rows[0]["n"].(int64)
	require.True(t, ok, "count should scan as int64, got %T", rows[0]["n"])
	assert.Greater(t, n, int64(0))
}

func TestProductStore_SeedOnlyOnce(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "products.db")

	s1, err := NewProductStore(path)
	require.NoError(t, err)

	rows, err := s1.Query(context.Background(), "SELECT COUNT(*) AS n FROM products", nil)
	require.NoError(t, err)
	first := rows[0]["n"]
	require.NoError(t, s1.Close())

	// Reopening must not duplicate the seed rows
	s2, err := NewProductStore(path)
	require.NoError(t, err)
	defer s2.Close()

	rows, err = s2.Query(context.Background(), "SELECT COUNT(*) AS n FROM products", nil)
	require.NoError(t, err)
	assert.Equal(t, first, rows[0]["n"])
}

func TestProductStore_ParameterizedQuery(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Query(ctx,
		"SELECT sku, name FROM products WHERE category = ? ORDER BY sku",
		[]any{"dice"},
	)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		_, ok := row["sku"].(string)
		assert.True(t, ok, "sku should be a string, got %T", row["sku"])
	}
}

func TestProductStore_Aggregate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Query(ctx,
		"SELECT category, COUNT(*) AS n, SUM(stock) AS total_stock FROM products GROUP BY category ORDER BY category",
		nil,
	)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Contains(t, rows[0], "total_stock")
}

func TestProductStore_QueryError(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Query(context.Background(), "SELECT * FROM no_such_table", nil)
	assert.Error(t, err)
}

func TestProductStore_EmptyResult(t *testing.T) {
	s := setupTestStore(t)

	rows, err := s.Query(context.Background(),
		"SELECT * FROM products WHERE sku = ?", []any{"NO-SUCH-SKU"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
