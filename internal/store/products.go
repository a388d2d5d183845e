// ABOUTME: SQLite-backed product database for the aggregate query service
// ABOUTME: Creates schema, seeds sample data, and runs parameterized read queries

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ProductStore wraps the sample product database the aggregate service
// queries against.
type ProductStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProductStore opens (or creates) the product database at the given
// path. The schema is created and seeded with sample rows when empty.
// Parent directories are created if needed.
func NewProductStore(path string) (*ProductStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &ProductStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding data: %w", err)
	}

	logger.Info("product store initialized", "path", path)
	return s, nil
}

// createSchema creates the products table if it doesn't exist
func (s *ProductStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sku TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			price_cents INTEGER NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// seed inserts the sample catalog when the table is empty.
func (s *ProductStore) seed() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		sku      string
		name     string
		category string
		price    int
		stock    int
	}{
		{"DICE-D6", "Six-sided die", "dice", 199, 120},
		{"DICE-D20", "Twenty-sided die", "dice", 349, 60},
		{"DICE-SET", "Polyhedral dice set", "dice", 1499, 25},
		{"MAT-S", "Small rolling mat", "accessories", 899, 40},
		{"MAT-L", "Large rolling mat", "accessories", 1599, 15},
		{"TOWER-1", "Dice tower", "accessories", 2499, 8},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range seed {
		_, err := tx.Exec(
			"INSERT INTO products (sku, name, category, price_cents, stock) VALUES (?, ?, ?, ?, ?)",
			p.sku, p.name, p.category, p.price, p.stock,
		)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", p.sku, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("seeded sample products", "count", len(seed))
	return nil
}

// Query runs a parameterized read query and returns generic rows. The
// caller is responsible for restricting the statement shape; this layer
// only binds parameters and maps results.
func (s *ProductStore) Query(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			// Text columns scan as []byte; return strings to JSON callers
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return result, nil
}

// Close closes the underlying database.
func (s *ProductStore) Close() error {
	return s.db.Close()
}
