// Package store provides SQLite persistence for the aggregate query
// service using modernc.org/sqlite.
//
// # Product Database
//
// ProductStore owns the sample product catalog. The schema is created
// on open and seeded with a small catalog when empty:
//
//	products(id, sku, name, category, price_cents, stock)
//
// # Queries
//
// Query() executes parameterized SQL and returns rows as generic maps
// for JSON serialization. The store does not restrict statement shapes;
// the aggregate service enforces its SELECT-only policy before calling.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewProductStore(":memory:") in tests.
package store
