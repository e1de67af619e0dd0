package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// catalogPageSize bounds how many vendor parts one query carries; the
// hosted catalog rejects oversized parameter lists.
const catalogPageSize = 500

// PGCatalog is the Postgres-backed remote catalog, queried by the
// distributor's vendor-part column.
type PGCatalog struct {
	db    *sql.DB
	table string
}

// NewPGCatalog opens the hosted catalog database.
func NewPGCatalog(dsn, table string) (*PGCatalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	if table == "" {
		table = "catalog_items"
	}
	return &PGCatalog{db: db, table: table}, nil
}

// NewPGCatalogWithDB wraps an existing connection, for tests.
func NewPGCatalogWithDB(db *sql.DB, table string) *PGCatalog {
	if table == "" {
		table = "catalog_items"
	}
	return &PGCatalog{db: db, table: table}
}

// LookupParts returns (vendor part -> distributor part number) pairs
// for the skus present in the catalog, paging through the input.
func (c *PGCatalog) LookupParts(ctx context.Context, skus []string) (map[string]string, error) {
	result := make(map[string]string, len(skus))
	for start := 0; start < len(skus); start += catalogPageSize {
		end := start + catalogPageSize
		if end > len(skus) {
			end = len(skus)
		}
		if err := c.lookupPage(ctx, skus[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *PGCatalog) lookupPage(ctx context.Context, skus []string, into map[string]string) error {
	query := fmt.Sprintf(
		`SELECT vendor_part, distributor_part FROM %s WHERE vendor_part = ANY($1) AND distributor_part <> ''`,
		pq.QuoteIdentifier(c.table),
	)
	rows, err := c.db.QueryContext(ctx, query, pq.Array(skus))
	if err != nil {
		return fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vendorPart, distributorPart string
		if err := rows.Scan(&vendorPart, &distributorPart); err != nil {
			return fmt.Errorf("scanning catalog row: %w", err)
		}
		into[vendorPart] = distributorPart
	}
	return rows.Err()
}

// Close releases the database handle.
func (c *PGCatalog) Close() error {
	return c.db.Close()
}

// Ensure PGCatalog implements Catalog
var _ Catalog = (*PGCatalog)(nil)
